package model

import "fmt"

// Mode selects how a subscription is evaluated and scheduled.
type Mode string

const (
	ModeManual Mode = "manual"
	ModeAuto   Mode = "auto"
	ModeScalp  Mode = "scalp"
	ModeLevels Mode = "levels"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeManual, ModeAuto, ModeScalp, ModeLevels}

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// State is the lifecycle position of a subscription.
type State string

const (
	StateUnconfigured    State = "unconfigured"
	StatePairSelected    State = "pair_selected"
	StateFullyConfigured State = "fully_configured"
	StateStopped         State = "stopped"
)

// Subscription is a tracked (owner, symbol, timeframe, mode) target.
type Subscription struct {
	OwnerID   int64
	Symbol    string
	Timeframe string
	Mode      Mode
	State     State
}

// Polling reports whether the subscription has an installed job.
func (s Subscription) Polling() bool { return s.State == StateFullyConfigured }

func (s Subscription) String() string {
	switch {
	case s.Mode == ModeAuto:
		return fmt.Sprintf("%s[%s]", s.Mode, s.State)
	case s.Timeframe == "":
		return fmt.Sprintf("%s %s[%s]", s.Mode, s.Symbol, s.State)
	default:
		return fmt.Sprintf("%s %s %s[%s]", s.Mode, s.Symbol, s.Timeframe, s.State)
	}
}
