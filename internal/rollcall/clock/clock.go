// Package clock provides the time sources used for session age and reset
// expiry decisions.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock reports the current time. Implementations backed by storage may fail.
type Clock interface {
	Now(ctx context.Context) (time.Time, error)
}

// System is the local wall clock.
type System struct{}

func (System) Now(context.Context) (time.Time, error) { return time.Now().UTC(), nil }

// Manual is a settable clock for tests and tools.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a Manual clock set to t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t.UTC()}
}

func (m *Manual) Now(context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now, nil
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t.UTC()
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
