package calculator

import "SignalSentinel/internal/model"

// MACDResult holds the three MACD series.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// CalculateMACD computes EMA(fast)-EMA(slow), its EMA(signal) and the histogram.
func CalculateMACD(bars []model.Candle, fast, slow, signal int) (*MACDResult, error) {
	closes := extractCloses(bars)
	fastEMA, err := CalculateEMA(closes, fast)
	if err != nil {
		return nil, err
	}
	slowEMA, err := CalculateEMA(closes, slow)
	if err != nil {
		return nil, err
	}
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig, err := CalculateEMA(line, signal)
	if err != nil {
		return nil, err
	}
	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return &MACDResult{MACD: line, Signal: sig, Histogram: hist}, nil
}
