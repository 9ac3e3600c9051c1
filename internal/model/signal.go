package model

import "time"

// Label is the trading direction of a signal.
type Label string

const (
	LabelBuy  Label = "BUY"
	LabelSell Label = "SELL"
	LabelHold Label = "HOLD"
)

// Strength is the ordinal confidence tier of a signal.
type Strength int

const (
	StrengthNone Strength = iota
	StrengthWeak
	StrengthMedium
	StrengthStrong
)

func (s Strength) String() string {
	switch s {
	case StrengthWeak:
		return "weak"
	case StrengthMedium:
		return "medium"
	case StrengthStrong:
		return "strong"
	default:
		return "none"
	}
}

// FactorScore represents a single scoring factor. Side is empty when it did not trigger.
type FactorScore struct {
	Name       string
	Side       Label
	Weight     float64
	Commentary string
}

// Signal is the output of one scoring pass. It is never mutated after creation.
type Signal struct {
	Label     Label
	Strength  Strength
	Factors   []FactorScore
	BuyScore  float64
	SellScore float64
	NearLevel *Level // set when the level-proximity bonus applied
	Reason    string // why scoring was skipped, if it was
}

// Evaluation bundles a signal with the context it was computed from.
type Evaluation struct {
	Symbol      string
	Timeframe   string
	Mode        Mode
	Price       float64
	Indicators  IndicatorValues
	Levels      *LevelSet
	Signal      *Signal
	EvaluatedAt time.Time
}
