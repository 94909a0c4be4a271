package metrics

import "time"

// Estimator is the common surface every engine in this module exposes
// (sketch.Sketch[C] and table.Table both satisfy it).
type Estimator interface {
	Increment(key []byte, n int64) error
	Get(key []byte) int64
	Total() int64
	Cardinality() int64
}

// operationMetrics mirrors the teacher's serverMetrics shape
// (totalRequests/responseTime), one pair per tracked operation name
// instead of per gRPC method.
type operationMetrics struct {
	calls   Counter
	elapsed Timer
}

// Instrumented wraps an Estimator and records call counts and timings
// for increment/get/merge/prune through a MetricReporter, the same
// count+timer-per-operation shape as the teacher's ServerReporter.
type Instrumented struct {
	inner    Estimator
	reporter MetricReporter
	ops      map[string]*operationMetrics
}

// NewInstrumented wraps inner, reporting through reporter.
func NewInstrumented(inner Estimator, reporter MetricReporter) *Instrumented {
	if reporter == nil {
		reporter = NopReporter
	}
	return &Instrumented{
		inner:    inner,
		reporter: reporter,
		ops:      make(map[string]*operationMetrics),
	}
}

func (i *Instrumented) metricsFor(op string) *operationMetrics {
	m, ok := i.ops[op]
	if !ok {
		m = &operationMetrics{
			calls:   i.reporter.NewCounter(op + ".calls"),
			elapsed: i.reporter.NewTimer(op + ".duration_ms"),
		}
		i.ops[op] = m
	}
	return m
}

func (i *Instrumented) record(op string, start time.Time) {
	m := i.metricsFor(op)
	m.calls.Inc()
	m.elapsed.AddValue(float64(time.Since(start).Microseconds()) / 1000.0)
}

// Increment delegates to the wrapped Estimator, recording a call count
// and duration under "increment".
func (i *Instrumented) Increment(key []byte, n int64) error {
	defer i.record("increment", time.Now())
	return i.inner.Increment(key, n)
}

// Get delegates to the wrapped Estimator, recording a call count and
// duration under "get".
func (i *Instrumented) Get(key []byte) int64 {
	defer i.record("get", time.Now())
	return i.inner.Get(key)
}

// Total returns the wrapped Estimator's running total, uninstrumented:
// it is a cheap field read with nothing worth timing.
func (i *Instrumented) Total() int64 { return i.inner.Total() }

// Cardinality delegates to the wrapped Estimator, recording a call
// count and duration under "cardinality".
func (i *Instrumented) Cardinality() int64 {
	defer i.record("cardinality", time.Now())
	return i.inner.Cardinality()
}

// RecordPrune lets a caller that prunes the wrapped Estimator directly
// (table.Table.Prune has no place in the Estimator interface, since
// sketch.Sketch has no prune operation) still feed the same
// calls+duration pair under "prune".
func (i *Instrumented) RecordPrune(start time.Time) {
	i.record("prune", start)
}

// RecordMerge lets a caller that merges the wrapped Estimator directly
// feed the same calls+duration pair under "merge".
func (i *Instrumented) RecordMerge(start time.Time) {
	i.record("merge", start)
}
