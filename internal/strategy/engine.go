package strategy

import (
	"fmt"

	"SignalSentinel/internal/levels"
	"SignalSentinel/internal/model"
)

// Weights are the additive contributions of each factor.
type Weights struct {
	Trend     float64
	EMACross  float64
	MACDCross float64
	RSIStrong float64
	RSIWeak   float64
	Volume    float64
}

// Thresholds map an accumulated score to a strength tier.
// A score >= Strong is Strong, >= Medium is Medium, > 0 is Weak.
type Thresholds struct {
	Medium float64
	Strong float64
}

// RSIBands are the RSI cut-offs for the buy and sell factors.
type RSIBands struct {
	BuyStrong  float64 // rsi < BuyStrong scores RSIStrong on the buy side
	BuyWeak    float64 // else rsi < BuyWeak scores RSIWeak
	SellStrong float64 // rsi > SellStrong scores RSIStrong on the sell side
	SellWeak   float64 // else rsi > SellWeak scores RSIWeak
}

// Engine scores indicator snapshots into signals.
type Engine struct {
	Weights    Weights
	Thresholds Thresholds
	RSI        RSIBands
	Proximity  levels.Proximity
}

// DefaultEngine returns the standard weighting.
func DefaultEngine() *Engine {
	return &Engine{
		Weights:    Weights{Trend: 1.0, EMACross: 1.0, MACDCross: 1.0, RSIStrong: 1.0, RSIWeak: 0.5, Volume: 0.7},
		Thresholds: Thresholds{Medium: 2, Strong: 4},
		RSI:        RSIBands{BuyStrong: 35, BuyWeak: 45, SellStrong: 65, SellWeak: 55},
		Proximity:  levels.DefaultProximity(),
	}
}

// Validate rejects negative weights and inconsistent thresholds or bands.
func (e *Engine) Validate() error {
	w := e.Weights
	for name, v := range map[string]float64{
		"trend": w.Trend, "ema_cross": w.EMACross, "macd_cross": w.MACDCross,
		"rsi_strong": w.RSIStrong, "rsi_weak": w.RSIWeak, "volume": w.Volume,
	} {
		if v < 0 {
			return fmt.Errorf("scoring.weights.%s must not be negative, got %g", name, v)
		}
	}
	if e.Thresholds.Medium <= 0 || e.Thresholds.Strong <= e.Thresholds.Medium {
		return fmt.Errorf("scoring.thresholds must satisfy 0 < medium < strong, got %g/%g",
			e.Thresholds.Medium, e.Thresholds.Strong)
	}
	if e.RSI.BuyStrong > e.RSI.BuyWeak || e.RSI.SellStrong < e.RSI.SellWeak {
		return fmt.Errorf("scoring.rsi bands out of order")
	}
	if e.Proximity.ATRMultiplier <= 0 || e.Proximity.FallbackPct <= 0 {
		return fmt.Errorf("levels proximity settings must be positive")
	}
	return nil
}

// Input is everything the engine needs for one evaluation.
type Input struct {
	Price  float64
	Volume float64
	Curr   model.IndicatorValues
	Prev   model.IndicatorValues
	Levels *model.LevelSet // nil disables the level-proximity bonus
}

// mapTier maps an accumulated score to a strength tier.
func (e *Engine) mapTier(score float64) model.Strength {
	switch {
	case score >= e.Thresholds.Strong:
		return model.StrengthStrong
	case score >= e.Thresholds.Medium:
		return model.StrengthMedium
	case score > 0:
		return model.StrengthWeak
	default:
		return model.StrengthNone
	}
}

// Hold returns a HOLD/0 signal without evaluating any factor.
func Hold(reason string) *model.Signal {
	return &model.Signal{Label: model.LabelHold, Strength: model.StrengthNone, Reason: reason}
}

// Evaluate computes the signal for one snapshot.
func (e *Engine) Evaluate(in Input) *model.Signal {
	var buy, sell float64
	var factors []model.FactorScore

	for _, f := range []model.FactorScore{
		e.scoreTrend(in),
		e.scoreEMACross(in),
		e.scoreMACDCross(in),
		e.scoreRSI(in),
		e.scoreVolume(in),
	} {
		switch f.Side {
		case model.LabelBuy:
			buy += f.Weight
		case model.LabelSell:
			sell += f.Weight
		default:
			continue
		}
		factors = append(factors, f)
	}

	buyStrength, sellStrength := e.mapTier(buy), e.mapTier(sell)
	sig := &model.Signal{Label: model.LabelHold, Factors: factors, BuyScore: buy, SellScore: sell}
	switch {
	case buyStrength > sellStrength:
		sig.Label, sig.Strength = model.LabelBuy, buyStrength
	case sellStrength > buyStrength:
		sig.Label, sig.Strength = model.LabelSell, sellStrength
	}
	// equal strengths, including 0/0, stay HOLD with strength 0

	if in.Levels != nil {
		e.applyLevelBonus(sig, in)
	}
	return sig
}

// applyLevelBonus raises a BUY near support or a SELL near resistance by one tier, capped at Strong.
func (e *Engine) applyLevelBonus(sig *model.Signal, in Input) {
	var candidates []model.Level
	switch sig.Label {
	case model.LabelBuy:
		candidates = in.Levels.Supports
	case model.LabelSell:
		candidates = in.Levels.Resistances
	default:
		return
	}
	near := e.Proximity.Nearest(in.Price, in.Curr.ATR, candidates)
	if near == nil {
		return
	}
	sig.NearLevel = near
	if sig.Strength < model.StrengthStrong {
		sig.Strength++
	}
}
