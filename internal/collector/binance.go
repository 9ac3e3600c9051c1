package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"SignalSentinel/internal/model"
)

// DefaultBinanceURL is the public spot API.
const DefaultBinanceURL = "https://api.binance.com"

// binance error code for an unknown symbol
const codeInvalidSymbol = -1121

// BinanceFetcher implements Fetcher using the public Binance klines endpoint.
type BinanceFetcher struct {
	BaseURL string
	Client  *http.Client
	limiter *rate.Limiter
}

// NewBinanceFetcher creates a fetcher for baseURL (DefaultBinanceURL when empty).
// Without proxyURL the standard proxy environment is honoured.
// Requests are paced to requestsPerSecond; zero or less disables pacing.
func NewBinanceFetcher(baseURL, proxyURL string, requestsPerSecond float64) *BinanceFetcher {
	if baseURL == "" {
		baseURL = DefaultBinanceURL
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &BinanceFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   20 * time.Second,
			Transport: &http.Transport{Proxy: proxyFunc(proxyURL), MaxIdleConnsPerHost: 4},
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

func proxyFunc(proxyURL string) func(*http.Request) (*url.URL, error) {
	if proxyURL == "" {
		return http.ProxyFromEnvironment
	}
	u, err := url.Parse(proxyURL)
	if err != nil {
		return func(*http.Request) (*url.URL, error) {
			return nil, fmt.Errorf("invalid proxy %q: %w", proxyURL, err)
		}
	}
	return http.ProxyURL(u)
}

func (f *BinanceFetcher) Name() string { return "binance" }

// MarketSymbol converts "BTC/USDT" to the exchange form "BTCUSDT".
func MarketSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (f *BinanceFetcher) FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.Candle, error) {
	fail := func(kind ErrorKind, err error) error {
		return &FetchError{Kind: kind, Source: f.Name(), Symbol: symbol, Err: err}
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fail(Transient, err)
	}

	q := url.Values{}
	q.Set("symbol", MarketSymbol(symbol))
	q.Set("interval", timeframe)
	q.Set("limit", fmt.Sprintf("%d", limit))
	endpoint := f.BaseURL + "/api/v3/klines?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fail(Transient, err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fail(Transient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(Transient, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fail(classifyStatus(resp.StatusCode, body), fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body)))
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fail(Transient, fmt.Errorf("decode klines: %w", err))
	}
	return parseKlines(rows)
}

func classifyStatus(status int, body []byte) ErrorKind {
	switch status {
	case http.StatusTooManyRequests, http.StatusTeapot:
		return RateLimited
	case http.StatusNotFound:
		return NotFound
	case http.StatusBadRequest:
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && ae.Code == codeInvalidSymbol {
			return NotFound
		}
	}
	return Transient
}

// parseKlines converts raw kline rows into candles. Rows are
// [openTime, open, high, low, close, volume, closeTime, ...] with prices as strings.
func parseKlines(rows [][]json.RawMessage) ([]model.Candle, error) {
	candles := make([]model.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, &model.DataError{Index: i, Field: "row", Reason: fmt.Sprintf("has %d fields, want at least 6", len(row))}
		}
		var openMs int64
		if err := json.Unmarshal(row[0], &openMs); err != nil {
			return nil, &model.DataError{Index: i, Field: "open_time", Reason: "is not an integer"}
		}
		c := model.Candle{OpenTime: time.UnixMilli(openMs).UTC()}
		fields := []struct {
			name string
			dst  *float64
		}{
			{"open", &c.Open}, {"high", &c.High}, {"low", &c.Low}, {"close", &c.Close}, {"volume", &c.Volume},
		}
		for j, fd := range fields {
			v, err := parseDecimal(row[j+1])
			if err != nil {
				return nil, &model.DataError{Index: i, Field: fd.name, Reason: err.Error()}
			}
			*fd.dst = v
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func parseDecimal(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, errors.New("is not a string")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("is not a decimal: %q", s)
	}
	return d.InexactFloat64(), nil
}
