// Package testutil provides deterministic test doubles for the engine's
// collaborators: a pinnable clock and a scripted execution environment.
package testutil

import (
	"sync"
	"time"
)

// FixedClock is a thread-safe clock pinned to an explicit time, advanced
// only by the test. Using it makes every recorded timestamp reproducible.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock pinned to the given time.
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

// Now returns the pinned time.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
