// Package prom exports report cache activity as Prometheus metrics.
package prom

import (
	"github.com/jonwraymond/evalops/cache"
	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements cache.Metrics with Prometheus counters and a gauge.
// Hits and misses are labelled by operation.
type Adapter struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
	size   prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:          registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "hits_total",
				Help:        "Report cache hits by operation",
				ConstLabels: constLabels,
			},
			[]string{"operation"},
		),
		misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   sub,
				Name:        "misses_total",
				Help:        "Report cache misses by operation",
				ConstLabels: constLabels,
			},
			[]string{"operation"},
		),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "size_entries",
			Help:        "Number of cached results",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.size)
	return a
}

// Hit increments the hit counter for op.
func (a *Adapter) Hit(op string) { a.hits.WithLabelValues(op).Inc() }

// Miss increments the miss counter for op.
func (a *Adapter) Miss(op string) { a.misses.WithLabelValues(op).Inc() }

// Size records the number of stored entries.
func (a *Adapter) Size(n int) { a.size.Set(float64(n)) }

var _ cache.Metrics = (*Adapter)(nil)
