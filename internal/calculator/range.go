package calculator

import (
	"math"

	"SignalSentinel/internal/model"
)

// CalculateTrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per bar.
// The first bar has no previous close and uses high-low.
func CalculateTrueRange(bars []model.Candle) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		r := b.High - b.Low
		if i > 0 {
			prevClose := bars[i-1].Close
			r = math.Max(r, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
		}
		tr[i] = r
	}
	return tr
}

// CalculateATR is the simple moving average of the true range over period.
func CalculateATR(bars []model.Candle, period int) ([]float64, error) {
	return CalculateSMA(CalculateTrueRange(bars), period)
}
