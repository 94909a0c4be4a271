package metrics

import (
	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusReporter creates prometheus collectors on demand and
// registers them with a caller-supplied Registerer. It intentionally
// carries no HTTP listener: serving /metrics is the caller's concern.
type PrometheusReporter struct {
	registerer prometheus.Registerer
	namespace  string
}

// NewPrometheusReporter returns a PrometheusReporter that registers
// every counter/timer it creates against registerer, under namespace.
func NewPrometheusReporter(registerer prometheus.Registerer, namespace string) *PrometheusReporter {
	return &PrometheusReporter{registerer: registerer, namespace: namespace}
}

func (p *PrometheusReporter) NewCounter(name string) Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: p.namespace,
		Name:      sanitizeMetricName(name),
		Help:      "sketchbound " + name,
	})
	p.registerer.MustRegister(c)
	return prometheusCounter{c}
}

func (p *PrometheusReporter) NewTimer(name string) Timer {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: p.namespace,
		Name:      sanitizeMetricName(name),
		Help:      "sketchbound " + name,
		Buckets:   prometheus.DefBuckets,
	})
	p.registerer.MustRegister(h)
	return prometheusTimer{h}
}

type prometheusCounter struct {
	c prometheus.Counter
}

func (p prometheusCounter) Add(v uint64) { p.c.Add(float64(v)) }
func (p prometheusCounter) Inc()         { p.c.Inc() }

// Value reads back the counter's current value through its protobuf
// snapshot, since prometheus.Counter exposes no direct getter.
func (p prometheusCounter) Value() uint64 {
	var m dto.Metric
	if err := p.c.(prometheus.Metric).Write(&m); err != nil {
		return 0
	}
	return uint64(m.GetCounter().GetValue())
}

type prometheusTimer struct {
	h prometheus.Histogram
}

func (p prometheusTimer) AddValue(v float64) { p.h.Observe(v) }

func sanitizeMetricName(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out[i] = c
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
