// Package clock abstracts "now" so calendar-sensitive logic (check-in
// gating, adherence windows) can run against injected time in tests.
package clock

import "time"

// Clock supplies the current time. The returned time's location is the
// deployment's local calendar for day-boundary comparisons.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// New returns a Clock backed by the system time.
func New() Clock {
	return systemClock{}
}

// Fixed is a Clock pinned to a single instant. Advance it between
// assertions with Set.
type Fixed struct {
	t time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (f *Fixed) Now() time.Time { return f.t }

func (f *Fixed) Set(t time.Time) { f.t = t }

// Add moves the fixed clock forward by d.
func (f *Fixed) Add(d time.Duration) { f.t = f.t.Add(d) }
