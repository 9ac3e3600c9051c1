package model

import (
	"fmt"
	"math"
	"time"
)

// Candle represents a single candlestick bar.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// CandleSeries holds the bars of one (symbol, timeframe), oldest first.
type CandleSeries struct {
	Symbol    string
	Timeframe string
	Candles   []Candle
	FetchedAt time.Time
}

// DataError reports a malformed candle.
type DataError struct {
	Index  int
	Field  string
	Reason string
}

func (e *DataError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed candle data: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed candle %d: %s %s", e.Index, e.Field, e.Reason)
}

// Len returns the number of bars.
func (s *CandleSeries) Len() int { return len(s.Candles) }

// Closes returns the close prices in order.
func (s *CandleSeries) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Volumes returns the bar volumes in order.
func (s *CandleSeries) Volumes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Volume
	}
	return out
}

// Last returns the most recent bar. The series must not be empty.
func (s *CandleSeries) Last() Candle { return s.Candles[len(s.Candles)-1] }

// Validate checks every bar for finite positive prices, sane ranges and strictly increasing time.
func (s *CandleSeries) Validate() error {
	for i, c := range s.Candles {
		prices := []struct {
			name string
			v    float64
		}{{"open", c.Open}, {"high", c.High}, {"low", c.Low}, {"close", c.Close}}
		for _, p := range prices {
			if math.IsNaN(p.v) || math.IsInf(p.v, 0) {
				return &DataError{Index: i, Field: p.name, Reason: "is not a finite number"}
			}
			if p.v <= 0 {
				return &DataError{Index: i, Field: p.name, Reason: "must be positive"}
			}
		}
		if math.IsNaN(c.Volume) || math.IsInf(c.Volume, 0) || c.Volume < 0 {
			return &DataError{Index: i, Field: "volume", Reason: "must be a finite non-negative number"}
		}
		if c.High < c.Low {
			return &DataError{Index: i, Field: "high", Reason: "is below low"}
		}
		if i > 0 && !c.OpenTime.After(s.Candles[i-1].OpenTime) {
			return &DataError{Index: i, Field: "open_time", Reason: "is not strictly increasing"}
		}
	}
	return nil
}
