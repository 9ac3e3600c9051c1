package model

import "math"

// IndicatorValues is one bar's worth of indicator readings. NaN means the value is not yet defined.
type IndicatorValues struct {
	EMAFast    float64
	EMAMid     float64
	EMASlow    float64
	RSI        float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64
	ATR        float64
	VolumeMA   float64
}

// Valid reports whether v holds a defined indicator reading.
func Valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// UndefinedValues returns readings with every indicator undefined.
func UndefinedValues() IndicatorValues {
	nan := math.NaN()
	return IndicatorValues{
		EMAFast: nan, EMAMid: nan, EMASlow: nan, RSI: nan,
		MACD: nan, MACDSignal: nan, MACDHist: nan, ATR: nan, VolumeMA: nan,
	}
}
