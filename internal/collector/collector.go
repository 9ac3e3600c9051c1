package collector

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	// Data overrides the generated bars per symbol.
	Data map[string][]model.Candle
	// Errors makes FetchCandles fail for a symbol.
	Errors map[string]error
	// Delay is applied before every fetch.
	Delay time.Duration

	mu    sync.Mutex
	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.Candle, error) {
	m.calls.Add(1)
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, &FetchError{Kind: Transient, Source: m.Name(), Symbol: symbol, Err: ctx.Err()}
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Data[symbol]; ok {
		if len(bars) > limit {
			bars = bars[len(bars)-limit:]
		}
		return append([]model.Candle(nil), bars...), nil
	}
	step, err := model.TimeframeDuration(timeframe)
	if err != nil {
		return nil, &FetchError{Kind: NotFound, Source: m.Name(), Symbol: symbol, Err: err}
	}
	return generateMockBars(m.Price, limit, step), nil
}

// SetData replaces the bars returned for symbol.
func (m *MockFetcher) SetData(symbol string, bars []model.Candle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Data == nil {
		m.Data = make(map[string][]model.Candle)
	}
	m.Data[symbol] = bars
}

// Calls returns the number of FetchCandles invocations.
func (m *MockFetcher) Calls() int64 { return m.calls.Load() }

// generateMockBars produces a gentle oscillation around basePrice, aligned to step.
func generateMockBars(basePrice float64, count int, step time.Duration) []model.Candle {
	end := time.Now().UTC().Truncate(step)
	bars := make([]model.Candle, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.01*math.Sin(float64(i)/6))
		bars[i] = model.Candle{
			OpenTime: end.Add(-time.Duration(count-i) * step),
			Open:     p * 0.999,
			High:     p * 1.005,
			Low:      p * 0.995,
			Close:    p,
			Volume:   1000000,
		}
	}
	return bars
}

// Collector orchestrates candle fetching and indicator computation.
type Collector struct {
	Fetcher Fetcher
	Params  calculator.Params
	Limit   int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, params calculator.Params, limit int) *Collector {
	return &Collector{Fetcher: fetcher, Params: params, Limit: limit}
}

// Collect fetches candles for (symbol, timeframe) and computes all indicators.
// Fetch failures come back as *FetchError, malformed bars as *model.DataError and
// short histories as *calculator.InsufficientDataError.
func (c *Collector) Collect(ctx context.Context, symbol, timeframe string) (*calculator.IndicatorSet, error) {
	return c.CollectN(ctx, symbol, timeframe, c.Limit)
}

// CollectN is Collect with an explicit candle limit.
func (c *Collector) CollectN(ctx context.Context, symbol, timeframe string, limit int) (*calculator.IndicatorSet, error) {
	bars, err := c.Fetcher.FetchCandles(ctx, symbol, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s: %w", symbol, timeframe, err)
	}
	series := &model.CandleSeries{
		Symbol:    symbol,
		Timeframe: timeframe,
		Candles:   bars,
		FetchedAt: time.Now(),
	}
	set, err := calculator.Compute(series, c.Params)
	if err != nil {
		return nil, fmt.Errorf("compute %s %s: %w", symbol, timeframe, err)
	}
	return set, nil
}
