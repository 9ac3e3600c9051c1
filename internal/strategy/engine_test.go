package strategy

import (
	"math"
	"testing"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

func values(fast, mid, slow, rsi, macd, macdSignal, atr, volMA float64) model.IndicatorValues {
	return model.IndicatorValues{
		EMAFast: fast, EMAMid: mid, EMASlow: slow, RSI: rsi,
		MACD: macd, MACDSignal: macdSignal, MACDHist: macd - macdSignal,
		ATR: atr, VolumeMA: volMA,
	}
}

func TestEvaluate_StrongBuy(t *testing.T) {
	// trend aligned, fast EMA and MACD both cross up on the last bar, oversold RSI, heavy volume
	in := Input{
		Price:  105,
		Volume: 5000,
		Prev:   values(99.5, 100, 90, 33, -0.2, 0.1, 1.5, 1000),
		Curr:   values(101, 100, 91, 32, 0.3, 0.1, 1.5, 1000),
	}
	sig := DefaultEngine().Evaluate(in)
	if sig.Label != model.LabelBuy {
		t.Fatalf("expected BUY, got %s", sig.Label)
	}
	if sig.Strength != model.StrengthStrong {
		t.Errorf("expected strong, got %s (buy=%.2f)", sig.Strength, sig.BuyScore)
	}
	if math.Abs(sig.BuyScore-4.7) > 1e-9 {
		t.Errorf("expected buy score 4.7, got %.3f", sig.BuyScore)
	}
	if len(sig.Factors) != 5 {
		t.Errorf("expected 5 contributing factors, got %d", len(sig.Factors))
	}
}

func TestEvaluate_FlatSeriesHolds(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 250
	}
	set, err := calculator.Compute(flatSeries(closes), calculator.DefaultParams())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	sig := DefaultEngine().Evaluate(InputFromSet(set))
	if sig.Label != model.LabelHold || sig.Strength != model.StrengthNone {
		t.Errorf("expected HOLD/0, got %s/%d", sig.Label, sig.Strength)
	}
	if len(sig.Factors) != 0 {
		t.Errorf("expected no factors, got %v", sig.Factors)
	}
}

func TestEvaluate_TieHolds(t *testing.T) {
	// bullish EMA cross (1.0) vs overbought RSI (1.0): both weak
	in := Input{
		Price:  100,
		Volume: 10,
		Prev:   values(99, 100, math.NaN(), 70, 0, 0, math.NaN(), math.NaN()),
		Curr:   values(101, 100, math.NaN(), 70, 0, 0, math.NaN(), math.NaN()),
	}
	sig := DefaultEngine().Evaluate(in)
	if sig.Label != model.LabelHold || sig.Strength != model.StrengthNone {
		t.Errorf("tie should hold, got %s/%d (buy=%.1f sell=%.1f)", sig.Label, sig.Strength, sig.BuyScore, sig.SellScore)
	}
	if sig.BuyScore != 1 || sig.SellScore != 1 {
		t.Errorf("unexpected scores buy=%.1f sell=%.1f", sig.BuyScore, sig.SellScore)
	}
}

func TestEvaluate_HigherStrengthWins(t *testing.T) {
	// sell: bearish alignment + MACD cross down = 2.0 (medium); buy: RSI 40 = 0.5 (weak)
	in := Input{
		Price:  80,
		Volume: 10,
		Prev:   values(90, 95, 100, 41, 0.5, 0.1, 2, 100),
		Curr:   values(89, 95, 100, 40, -0.5, 0.1, 2, 100),
	}
	sig := DefaultEngine().Evaluate(in)
	if sig.Label != model.LabelSell || sig.Strength != model.StrengthMedium {
		t.Errorf("expected SELL/medium, got %s/%s", sig.Label, sig.Strength)
	}
}

func TestMapTier_AllBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  model.Strength
	}{
		{5.0, model.StrengthStrong},
		{4.0, model.StrengthStrong},
		{3.9, model.StrengthMedium},
		{2.0, model.StrengthMedium},
		{1.9, model.StrengthWeak},
		{0.5, model.StrengthWeak},
		{0.0, model.StrengthNone},
	}
	e := DefaultEngine()
	for _, tt := range tests {
		if got := e.mapTier(tt.score); got != tt.want {
			t.Errorf("score %.1f: expected %s, got %s", tt.score, tt.want, got)
		}
	}
}

func TestScoreRSI_Bands(t *testing.T) {
	tests := []struct {
		rsi    float64
		side   model.Label
		weight float64
	}{
		{20, model.LabelBuy, 1.0},
		{34.9, model.LabelBuy, 1.0},
		{35, model.LabelBuy, 0.5},
		{44.9, model.LabelBuy, 0.5},
		{50, "", 0},
		{55, "", 0},
		{55.1, model.LabelSell, 0.5},
		{65, model.LabelSell, 0.5},
		{65.1, model.LabelSell, 1.0},
	}
	e := DefaultEngine()
	for _, tt := range tests {
		f := e.scoreRSI(Input{Curr: model.IndicatorValues{RSI: tt.rsi}})
		if f.Side != tt.side || f.Weight != tt.weight {
			t.Errorf("rsi %.1f: expected %q/%.1f, got %q/%.1f", tt.rsi, tt.side, tt.weight, f.Side, f.Weight)
		}
	}
}

func TestLevelBonus(t *testing.T) {
	// weak buy (RSI 30) next to a support gets promoted to medium
	in := Input{
		Price:  100.2,
		Volume: 10,
		Prev:   values(math.NaN(), math.NaN(), math.NaN(), 30, 0, 0, 1, math.NaN()),
		Curr:   values(math.NaN(), math.NaN(), math.NaN(), 30, 0, 0, 1, math.NaN()),
		Levels: &model.LevelSet{
			Supports:    []model.Level{{Price: 100, Kind: model.LevelSupport}},
			Resistances: []model.Level{{Price: 120, Kind: model.LevelResistance}},
		},
	}
	sig := DefaultEngine().Evaluate(in)
	if sig.Label != model.LabelBuy || sig.Strength != model.StrengthMedium {
		t.Fatalf("expected BUY/medium, got %s/%s", sig.Label, sig.Strength)
	}
	if sig.NearLevel == nil || sig.NearLevel.Price != 100 {
		t.Errorf("expected near support 100, got %+v", sig.NearLevel)
	}

	// the same input without levels stays weak
	in.Levels = nil
	if sig := DefaultEngine().Evaluate(in); sig.Strength != model.StrengthWeak {
		t.Errorf("expected weak without levels, got %s", sig.Strength)
	}

	// a buy near resistance only gets no bonus
	in.Levels = &model.LevelSet{Resistances: []model.Level{{Price: 100, Kind: model.LevelResistance}}}
	if sig := DefaultEngine().Evaluate(in); sig.Strength != model.StrengthWeak {
		t.Errorf("expected weak near resistance, got %s", sig.Strength)
	}
}

func TestLevelBonus_CappedAtStrong(t *testing.T) {
	in := Input{
		Price:  105,
		Volume: 5000,
		Prev:   values(99.5, 100, 90, 33, -0.2, 0.1, 10, 1000),
		Curr:   values(101, 100, 91, 32, 0.3, 0.1, 10, 1000),
		Levels: &model.LevelSet{Supports: []model.Level{{Price: 104, Kind: model.LevelSupport}}},
	}
	sig := DefaultEngine().Evaluate(in)
	if sig.Strength != model.StrengthStrong {
		t.Errorf("expected strong cap, got %s", sig.Strength)
	}
	if sig.NearLevel == nil {
		t.Error("expected near level to be recorded")
	}
}

func TestHold(t *testing.T) {
	sig := Hold("insufficient data")
	if sig.Label != model.LabelHold || sig.Strength != model.StrengthNone || sig.Reason == "" {
		t.Errorf("unexpected hold signal: %+v", sig)
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultEngine().Validate(); err != nil {
		t.Fatalf("default engine invalid: %v", err)
	}
	e := DefaultEngine()
	e.Weights.Volume = -1
	if e.Validate() == nil {
		t.Error("expected negative weight to fail")
	}
	e = DefaultEngine()
	e.Thresholds.Strong = 1
	if e.Validate() == nil {
		t.Error("expected strong <= medium to fail")
	}
}
