package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"SignalSentinel/internal/model"
)

var (
	// ErrNoPair is returned when a timeframe is selected before a pair.
	ErrNoPair = errors.New("no pair selected")
	// ErrNotConfigured is returned when activating a subscription that is not fully configured.
	ErrNotConfigured = errors.New("subscription is not fully configured")
)

type slot struct {
	owner int64
	mode  model.Mode
}

type entry struct {
	sub model.Subscription
	act *Activation
}

// Target is a polling subscription together with its activation.
type Target struct {
	Sub model.Subscription
	Act *Activation
}

// Registry owns every subscription, keyed by (owner, mode).
type Registry struct {
	mu    sync.Mutex
	ctx   context.Context
	slots map[slot]*entry
}

// New creates an empty registry. Activations derive their context from ctx.
func New(ctx context.Context) *Registry {
	return &Registry{ctx: ctx, slots: make(map[slot]*entry)}
}

// Get returns the subscription for (owner, mode). Unknown slots are Unconfigured.
func (r *Registry) Get(owner int64, mode model.Mode) model.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.slots[slot{owner, mode}]; ok {
		return e.sub
	}
	return model.Subscription{OwnerID: owner, Mode: mode, State: model.StateUnconfigured}
}

// List returns every known subscription of owner, ordered by mode.
func (r *Registry) List(owner int64) []model.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Subscription
	for k, e := range r.slots {
		if k.owner == owner {
			out = append(out, e.sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mode < out[j].Mode })
	return out
}

// Configure sets the pair and optionally the timeframe of a slot. An empty timeframe leaves
// the slot in PairSelected, otherwise it becomes FullyConfigured. Any running activation is stopped.
func (r *Registry) Configure(owner int64, mode model.Mode, symbol, timeframe string) model.Subscription {
	sub := model.Subscription{OwnerID: owner, Mode: mode, Symbol: symbol, Timeframe: timeframe}
	if timeframe == "" && mode != model.ModeAuto {
		sub.State = model.StatePairSelected
	} else {
		sub.State = model.StateFullyConfigured
	}

	r.mu.Lock()
	prev := r.replace(slot{owner, mode}, sub)
	r.mu.Unlock()

	if prev != nil {
		prev.stop()
	}
	return sub
}

// SelectTimeframe moves a slot with a selected pair to FullyConfigured.
func (r *Registry) SelectTimeframe(owner int64, mode model.Mode, timeframe string) (model.Subscription, error) {
	r.mu.Lock()
	e, ok := r.slots[slot{owner, mode}]
	if !ok || e.sub.Symbol == "" || e.sub.State == model.StateStopped {
		r.mu.Unlock()
		return model.Subscription{}, fmt.Errorf("%s timeframe %s: %w", mode, timeframe, ErrNoPair)
	}
	sub := e.sub
	sub.Timeframe = timeframe
	sub.State = model.StateFullyConfigured
	prev := r.replace(slot{owner, mode}, sub)
	r.mu.Unlock()

	if prev != nil {
		prev.stop()
	}
	return sub, nil
}

// Activate creates the activation for a FullyConfigured slot. It fails if the slot
// already has one or is not fully configured.
func (r *Registry) Activate(owner int64, mode model.Mode) (*Activation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.slots[slot{owner, mode}]
	if !ok || e.sub.State != model.StateFullyConfigured {
		return nil, fmt.Errorf("activate %s for %d: %w", mode, owner, ErrNotConfigured)
	}
	if e.act != nil {
		return nil, fmt.Errorf("activate %s for %d: already active", mode, owner)
	}
	e.act = newActivation(r.ctx)
	return e.act, nil
}

// Stop moves every slot of owner to Stopped and stops their activations before returning.
func (r *Registry) Stop(owner int64) []model.Subscription {
	r.mu.Lock()
	var stopped []model.Subscription
	var acts []*Activation
	for k, e := range r.slots {
		if k.owner != owner || e.sub.State == model.StateStopped {
			continue
		}
		e.sub.State = model.StateStopped
		stopped = append(stopped, e.sub)
		if e.act != nil {
			acts = append(acts, e.act)
			e.act = nil
		}
	}
	r.mu.Unlock()

	for _, a := range acts {
		a.stop()
	}
	if len(stopped) > 0 {
		log.Printf("[INFO] stopped %d subscription(s) of %d", len(stopped), owner)
	}
	sort.Slice(stopped, func(i, j int) bool { return stopped[i].Mode < stopped[j].Mode })
	return stopped
}

// Active returns the polling subscriptions of a mode that have an activation.
func (r *Registry) Active(mode model.Mode) []Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Target
	for k, e := range r.slots {
		if k.mode == mode && e.act != nil && e.sub.Polling() {
			out = append(out, Target{Sub: e.sub, Act: e.act})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sub.OwnerID < out[j].Sub.OwnerID })
	return out
}

// StopAll stops every activation, for shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	owners := make(map[int64]struct{})
	for k := range r.slots {
		owners[k.owner] = struct{}{}
	}
	r.mu.Unlock()
	for o := range owners {
		r.Stop(o)
	}
}

// replace stores sub in the slot and detaches the previous activation. Caller holds r.mu.
func (r *Registry) replace(k slot, sub model.Subscription) *Activation {
	e, ok := r.slots[k]
	if !ok {
		r.slots[k] = &entry{sub: sub}
		return nil
	}
	prev := e.act
	e.sub = sub
	e.act = nil
	return prev
}
