// Package metrics adapts the teacher's MetricReporter/Counter/Timer
// shape to this module's estimator engines, with three interchangeable
// backends instead of the teacher's single gostats implementation.
package metrics

import stats "github.com/lyft/gostats"

// MetricReporter creates named counters and timers. Implementations
// are expected to be safe for concurrent NewCounter/NewTimer calls;
// the returned Counter/Timer need not be, matching this module's
// single-threaded engines.
type MetricReporter interface {
	NewCounter(name string) Counter
	NewTimer(name string) Timer
}

// Counter is an always-incrementing stat.
type Counter interface {
	// Add increments the Counter by the argument's value.
	Add(uint64)

	// Inc increments the Counter by 1.
	Inc()

	// Value returns the current value of the Counter.
	Value() uint64
}

// Timer flushes timing observations, in milliseconds, to whatever
// backend it wraps.
type Timer interface {
	AddValue(float64)
}

// GostatsReporter is the teacher's original backend: a thin adapter
// over a lyft/gostats Scope.
type GostatsReporter struct {
	scope stats.Scope
}

// NewGostatsReporter wraps scope as a MetricReporter.
func NewGostatsReporter(scope stats.Scope) *GostatsReporter {
	return &GostatsReporter{scope: scope}
}

func (r *GostatsReporter) NewCounter(name string) Counter {
	return r.scope.NewCounter(name)
}

func (r *GostatsReporter) NewTimer(name string) Timer {
	return r.scope.NewTimer(name)
}

// NopReporter never records anything; every engine works without a
// reporter configured.
var NopReporter MetricReporter = nopReporter{}

type nopReporter struct{}

func (nopReporter) NewCounter(string) Counter { return nopCounter{} }
func (nopReporter) NewTimer(string) Timer     { return nopTimer{} }

type nopCounter struct{}

func (nopCounter) Add(uint64)    {}
func (nopCounter) Inc()          {}
func (nopCounter) Value() uint64 { return 0 }

type nopTimer struct{}

func (nopTimer) AddValue(float64) {}
