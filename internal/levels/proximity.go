package levels

import (
	"math"

	"SignalSentinel/internal/model"
)

// Proximity decides whether a price is close enough to a level to count as a touch.
type Proximity struct {
	ATRMultiplier float64 // |P-L| <= k*ATR when ATR is usable
	FallbackPct   float64 // |P-L|/L < pct otherwise, as a fraction (0.004 = 0.4%)
}

// DefaultProximity uses k = 0.7 and a 0.4% fallback.
func DefaultProximity() Proximity {
	return Proximity{ATRMultiplier: 0.7, FallbackPct: 0.004}
}

// Near reports whether price is near level.
func (p Proximity) Near(price, level, atr float64) bool {
	dist := math.Abs(price - level)
	if model.Valid(atr) && atr > 0 {
		return dist <= p.ATRMultiplier*atr
	}
	if level == 0 {
		return false
	}
	return dist/math.Abs(level) < p.FallbackPct
}

// Nearest returns the closest level that is near price, or nil.
func (p Proximity) Nearest(price, atr float64, levels []model.Level) *model.Level {
	var best *model.Level
	bestDist := math.Inf(1)
	for i := range levels {
		lv := levels[i]
		if !p.Near(price, lv.Price, atr) {
			continue
		}
		if d := math.Abs(price - lv.Price); d < bestDist {
			best, bestDist = &lv, d
		}
	}
	return best
}
