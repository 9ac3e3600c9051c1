package registry

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned by Deliver once the activation has been stopped.
var ErrStopped = errors.New("subscription stopped")

// Activation is one polling lifetime of a subscription. Stopping it cancels its
// context, waits for in-flight deliveries and runs the job-removal hooks.
type Activation struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	stopped bool
	onStop  []func()
}

func newActivation(parent context.Context) *Activation {
	ctx, cancel := context.WithCancel(parent)
	return &Activation{ctx: ctx, cancel: cancel}
}

// Context is cancelled when the activation stops.
func (a *Activation) Context() context.Context { return a.ctx }

// Stopped reports whether the activation has been stopped.
func (a *Activation) Stopped() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopped
}

// OnStop registers fn to run when the activation stops. If it is already stopped, fn runs immediately.
func (a *Activation) OnStop(fn func()) {
	a.mu.Lock()
	if !a.stopped {
		a.onStop = append(a.onStop, fn)
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()
	fn()
}

// Deliver runs send unless the activation is stopped. Stop blocks until a running send returns,
// so once Stop has returned no further send can begin.
func (a *Activation) Deliver(send func(ctx context.Context) error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.stopped {
		return ErrStopped
	}
	return send(a.ctx)
}

// stop is idempotent.
func (a *Activation) stop() {
	// cancel first so a send blocked in retry backoff returns and releases the read lock
	a.cancel()
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	hooks := a.onStop
	a.onStop = nil
	a.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
