package cooldown

import (
	"fmt"
	"sync"
	"time"

	"SignalSentinel/internal/model"
)

// SharedScope is the scope of the shared auto-scan.
const SharedScope = "auto"

// OwnerScope returns the scope of a per-owner target.
func OwnerScope(mode model.Mode, ownerID int64) string {
	return fmt.Sprintf("%s:%d", mode, ownerID)
}

// Key identifies a throttled target.
type Key struct {
	Scope     string
	Symbol    string
	Timeframe string
}

// Cache throttles weak signals per key. Medium and strong signals always pass.
// Entries are never evicted; staleness is decided by age on each check.
type Cache struct {
	mu       sync.Mutex
	window   time.Duration
	lastWeak map[Key]time.Time
	now      func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a cache with the given weak-signal window.
func NewCache(window time.Duration, opts ...Option) *Cache {
	c := &Cache{
		window:   window,
		lastWeak: make(map[Key]time.Time),
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Allow reports whether a signal of the given strength may be sent for key.
// A weak signal passes when no weak signal passed before or the last one is older
// than the window; passing resets the timer.
func (c *Cache) Allow(key Key, strength model.Strength) bool {
	switch {
	case strength >= model.StrengthMedium:
		return true
	case strength <= model.StrengthNone:
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if last, ok := c.lastWeak[key]; ok && now.Sub(last) <= c.window {
		return false
	}
	c.lastWeak[key] = now
	return true
}

// Touch records a weak send that bypassed Allow, such as a user-requested evaluation.
func (c *Cache) Touch(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastWeak[key] = c.now()
}

// Window returns the configured weak-signal window.
func (c *Cache) Window() time.Duration { return c.window }

// Len returns the number of tracked keys.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lastWeak)
}
