// Package clock abstracts the attestation timestamp source so services can be
// tested with deterministic time and so wall-clock regressions never produce
// a decreasing attestation timestamp.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time. Successive calls observed by any single
// attestation sequence are non-decreasing; equal values across rapid calls
// are allowed.
type Clock interface {
	Now() time.Time
}

// System is a wall clock clamped to be non-decreasing. NTP step-backs and
// leap adjustments are absorbed by returning the previous reading instead of
// going backwards.
type System struct {
	mu   sync.Mutex
	last time.Time
}

// NewSystem returns a non-decreasing system clock.
func NewSystem() *System {
	return &System{}
}

// Now returns the current wall time, never earlier than a previous reading.
func (c *System) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.Before(c.last) {
		return c.last
	}
	c.last = now
	return now
}

// Fake is a manually advanced clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a fake clock pinned at the given instant.
func NewFake(at time.Time) *Fake {
	return &Fake{now: at}
}

// Now returns the pinned instant.
func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set pins the clock to a specific instant.
func (c *Fake) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}
