package calculator

import (
	"errors"
	"math"

	"github.com/markcheno/go-talib"

	"SignalSentinel/internal/model"
)

var errPeriod = errors.New("period must be positive")

// CalculateSMA computes the rolling simple moving average of values over period.
// Indexes before the first full window are NaN.
func CalculateSMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errPeriod
	}
	out := nanSeries(len(values))
	if len(values) < period {
		return out, nil
	}
	sma := talib.Sma(values, period)
	copy(out[period-1:], sma[period-1:])
	return out, nil
}

// CalculateEMA computes the exponential moving average with alpha = 2/(span+1),
// seeded with the first defined value. Leading NaN inputs stay NaN.
func CalculateEMA(values []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, errPeriod
	}
	out := nanSeries(len(values))
	alpha := 2.0 / float64(span+1)
	prev := math.NaN()
	for i, v := range values {
		if !model.Valid(v) {
			out[i] = prev
			continue
		}
		if math.IsNaN(prev) {
			prev = v
		} else {
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out, nil
}

// CalculateVolumeMA is the simple moving average of bar volume.
func CalculateVolumeMA(bars []model.Candle, period int) ([]float64, error) {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	return CalculateSMA(vols, period)
}

func extractCloses(bars []model.Candle) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
