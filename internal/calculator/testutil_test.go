package calculator

import (
	"time"

	"SignalSentinel/internal/model"
)

func barsFromCloses(closes []float64) []model.Candle {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Candle, len(closes))
	for i, c := range closes {
		bars[i] = model.Candle{
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Open:     c,
			High:     c * 1.01,
			Low:      c * 0.99,
			Close:    c,
			Volume:   1000,
		}
	}
	return bars
}

func seriesFromCloses(closes []float64) *model.CandleSeries {
	return &model.CandleSeries{Symbol: "BTC/USDT", Timeframe: "1h", Candles: barsFromCloses(closes)}
}
