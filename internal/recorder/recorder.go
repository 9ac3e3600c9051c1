package recorder

import "SignalSentinel/internal/model"

// SignalEvent records one evaluated signal and what happened to it.
type SignalEvent struct {
	CycleID    string
	Scope      string // cooldown scope: "<mode>:<owner>" or "auto"
	OwnerID    int64  // 0 for the shared auto scan
	Mode       model.Mode
	Symbol     string
	Timeframe  string
	Label      model.Label
	Strength   model.Strength
	BuyScore   float64
	SellScore  float64
	Price      float64
	RSI        float64
	Recipients int
	Delivered  int
	Suppressed bool
}

// FetchFailure records a skipped cycle.
type FetchFailure struct {
	CycleID   string
	Mode      model.Mode
	Symbol    string
	Timeframe string
	Kind      string
	Message   string
}

// Recorder persists the signal journal for analysis.
type Recorder interface {
	RecordSignal(evt *SignalEvent) error
	RecordFetchFailure(evt *FetchFailure) error
	Close() error
}
