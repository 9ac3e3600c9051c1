package collector

import (
	"context"
	"errors"
	"fmt"

	"SignalSentinel/internal/model"
)

// Fetcher defines the interface for fetching candles.
type Fetcher interface {
	// FetchCandles returns up to limit bars of symbol ("BTC/USDT") at timeframe, oldest first.
	FetchCandles(ctx context.Context, symbol, timeframe string, limit int) ([]model.Candle, error)
	Name() string
}

// ErrorKind classifies a fetch failure.
type ErrorKind int

const (
	Transient ErrorKind = iota
	RateLimited
	NotFound
)

func (k ErrorKind) String() string {
	switch k {
	case RateLimited:
		return "rate limited"
	case NotFound:
		return "not found"
	default:
		return "transient"
	}
}

// FetchError is returned by fetchers for source failures.
type FetchError struct {
	Kind   ErrorKind
	Source string
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch %s: %s: %v", e.Source, e.Symbol, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsKind reports whether err is a FetchError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}
