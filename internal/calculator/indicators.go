package calculator

import (
	"fmt"

	"SignalSentinel/internal/model"
)

// Params configures the indicator windows.
type Params struct {
	MinHistoryBars int
	EMAFast        int
	EMAMid         int
	EMASlow        int
	RSIPeriod      int
	MACDFast       int
	MACDSlow       int
	MACDSignal     int
	ATRPeriod      int
	VolumeMAPeriod int
}

// DefaultParams returns the standard EMA 20/50/200, RSI 14, MACD 12/26/9, ATR 14, volume MA 20 setup.
func DefaultParams() Params {
	return Params{
		MinHistoryBars: 30,
		EMAFast:        20,
		EMAMid:         50,
		EMASlow:        200,
		RSIPeriod:      14,
		MACDFast:       12,
		MACDSlow:       26,
		MACDSignal:     9,
		ATRPeriod:      14,
		VolumeMAPeriod: 20,
	}
}

// Validate rejects non-positive windows.
func (p Params) Validate() error {
	windows := map[string]int{
		"min_history_bars": p.MinHistoryBars,
		"ema_fast":         p.EMAFast,
		"ema_mid":          p.EMAMid,
		"ema_slow":         p.EMASlow,
		"rsi_period":       p.RSIPeriod,
		"macd_fast":        p.MACDFast,
		"macd_slow":        p.MACDSlow,
		"macd_signal":      p.MACDSignal,
		"atr_period":       p.ATRPeriod,
		"volume_ma_period": p.VolumeMAPeriod,
	}
	for name, v := range windows {
		if v <= 0 {
			return fmt.Errorf("indicators.%s must be positive, got %d", name, v)
		}
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("indicators.macd_fast (%d) must be below macd_slow (%d)", p.MACDFast, p.MACDSlow)
	}
	return nil
}

// InsufficientDataError is returned when the series is shorter than the configured minimum.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: have %d bars, need %d", e.Have, e.Need)
}

// IndicatorSet holds indicator series aligned index-for-index with Series.Candles.
// Each value at index i is computed from candles[0..i] only.
type IndicatorSet struct {
	Series     *model.CandleSeries
	EMAFast    []float64
	EMAMid     []float64
	EMASlow    []float64
	RSI        []float64
	MACD       []float64
	MACDSignal []float64
	MACDHist   []float64
	ATR        []float64
	VolumeMA   []float64
}

// Compute validates the series and computes every indicator.
func Compute(series *model.CandleSeries, p Params) (*IndicatorSet, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if series.Len() < p.MinHistoryBars {
		return nil, &InsufficientDataError{Have: series.Len(), Need: p.MinHistoryBars}
	}

	bars := series.Candles
	closes := extractCloses(bars)
	set := &IndicatorSet{Series: series}
	var err error

	if set.EMAFast, err = CalculateEMA(closes, p.EMAFast); err != nil {
		return nil, fmt.Errorf("ema fast: %w", err)
	}
	if set.EMAMid, err = CalculateEMA(closes, p.EMAMid); err != nil {
		return nil, fmt.Errorf("ema mid: %w", err)
	}
	if set.EMASlow, err = CalculateEMA(closes, p.EMASlow); err != nil {
		return nil, fmt.Errorf("ema slow: %w", err)
	}
	if set.RSI, err = CalculateRSI(bars, p.RSIPeriod); err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	macd, err := CalculateMACD(bars, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}
	set.MACD, set.MACDSignal, set.MACDHist = macd.MACD, macd.Signal, macd.Histogram
	if set.ATR, err = CalculateATR(bars, p.ATRPeriod); err != nil {
		return nil, fmt.Errorf("atr: %w", err)
	}
	if set.VolumeMA, err = CalculateVolumeMA(bars, p.VolumeMAPeriod); err != nil {
		return nil, fmt.Errorf("volume ma: %w", err)
	}
	return set, nil
}

// Len returns the number of aligned bars.
func (s *IndicatorSet) Len() int { return s.Series.Len() }

// At returns the indicator readings at bar i. Out-of-range indexes yield all-NaN values.
func (s *IndicatorSet) At(i int) model.IndicatorValues {
	if i < 0 || i >= s.Len() {
		return model.UndefinedValues()
	}
	return model.IndicatorValues{
		EMAFast:    s.EMAFast[i],
		EMAMid:     s.EMAMid[i],
		EMASlow:    s.EMASlow[i],
		RSI:        s.RSI[i],
		MACD:       s.MACD[i],
		MACDSignal: s.MACDSignal[i],
		MACDHist:   s.MACDHist[i],
		ATR:        s.ATR[i],
		VolumeMA:   s.VolumeMA[i],
	}
}

// Latest returns the readings of the last bar.
func (s *IndicatorSet) Latest() model.IndicatorValues { return s.At(s.Len() - 1) }

// Previous returns the readings of the bar before the last.
func (s *IndicatorSet) Previous() model.IndicatorValues { return s.At(s.Len() - 2) }
