package calculator

import (
	"math"

	"SignalSentinel/internal/model"
)

// CalculateRSI computes RSI over period using simple moving averages of gains and losses
// (not Wilder smoothing). The first defined index is period.
// A window with losses but no gains gives 0, gains but no losses gives 100, and a flat window gives 50.
func CalculateRSI(bars []model.Candle, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errPeriod
	}
	closes := extractCloses(bars)
	out := nanSeries(len(closes))
	if len(closes) <= period {
		return out, nil
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	avgGain, err := CalculateSMA(gains, period)
	if err != nil {
		return nil, err
	}
	avgLoss, err := CalculateSMA(losses, period)
	if err != nil {
		return nil, err
	}

	// index 0 has no delta, so the first complete window ends at index period
	for i := period; i < len(closes); i++ {
		out[i] = rsiFromAverages(math.Max(avgGain[i], 0), math.Max(avgLoss[i], 0))
	}
	return out, nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50
	case avgLoss == 0:
		return 100
	}
	rs := avgGain / avgLoss
	rsi := 100.0 - 100.0/(1.0+rs)
	return math.Min(100, math.Max(0, rsi))
}
