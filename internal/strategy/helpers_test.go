package strategy

import (
	"time"

	"SignalSentinel/internal/model"
)

func flatSeries(closes []float64) *model.CandleSeries {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Candle, len(closes))
	for i, c := range closes {
		bars[i] = model.Candle{
			OpenTime: start.Add(time.Duration(i) * 15 * time.Minute),
			Open:     c, High: c, Low: c, Close: c, Volume: 500,
		}
	}
	return &model.CandleSeries{Symbol: "ETH/USDT", Timeframe: "15m", Candles: bars}
}
