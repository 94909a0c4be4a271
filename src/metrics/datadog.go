package metrics

import (
	"sync/atomic"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// DogStatsDReporter reports through a DataDog statsd client, one of
// the teacher's own direct dependencies.
type DogStatsDReporter struct {
	client *statsd.Client
	tags   []string
}

// NewDogStatsDReporter wraps an already-constructed statsd.Client.
func NewDogStatsDReporter(client *statsd.Client, tags ...string) *DogStatsDReporter {
	return &DogStatsDReporter{client: client, tags: tags}
}

func (d *DogStatsDReporter) NewCounter(name string) Counter {
	return &dogstatsdCounter{client: d.client, name: name, tags: d.tags}
}

func (d *DogStatsDReporter) NewTimer(name string) Timer {
	return &dogstatsdTimer{client: d.client, name: name, tags: d.tags}
}

// dogstatsdCounter tracks its own running value locally, since
// DogStatsD's count metric is fire-and-forget and has no read-back.
type dogstatsdCounter struct {
	client *statsd.Client
	name   string
	tags   []string
	value  uint64
}

func (c *dogstatsdCounter) Add(v uint64) {
	atomic.AddUint64(&c.value, v)
	_ = c.client.Count(c.name, int64(v), c.tags, 1)
}

func (c *dogstatsdCounter) Inc() { c.Add(1) }

func (c *dogstatsdCounter) Value() uint64 {
	return atomic.LoadUint64(&c.value)
}

type dogstatsdTimer struct {
	client *statsd.Client
	name   string
	tags   []string
}

func (t *dogstatsdTimer) AddValue(v float64) {
	_ = t.client.Histogram(t.name, v, t.tags, 1)
}
