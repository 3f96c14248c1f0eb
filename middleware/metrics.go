// Package middleware provides cross-cutting transform decorators for the
// mapping engine: Prometheus metrics, OpenTelemetry tracing, rate limiting,
// and retries. Every decorator implements pipeline.Transform and is
// transparent to provenance, so wrapped transforms compose into chains
// exactly like bare ones.
package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-wrangle/pipeline"
)

// Collector owns the Prometheus metric vectors shared by every transform it
// wraps. Create one Collector per registry; wrapping transforms through a
// shared Collector avoids duplicate metric registration.
type Collector struct {
	applyDuration *prometheus.HistogramVec
	applyTotal    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
// A nil reg registers with the default Prometheus registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		applyDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wrangle_transform_apply_duration_seconds",
				Help:    "Time spent applying a transform, including nested steps.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"transform"},
		),
		applyTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wrangle_transform_applies_total",
				Help: "Total transform applications by outcome.",
			},
			[]string{"transform", "status"},
		),
	}
}

// Wrap decorates next so that every application records its duration and
// outcome under next's name.
func (c *Collector) Wrap(next pipeline.Transform) pipeline.Transform {
	return &meteredTransform{next: next, collector: c}
}

type meteredTransform struct {
	next      pipeline.Transform
	collector *Collector
}

// Name reports the wrapped transform's name so provenance and metric labels
// stay attributed to the real transform.
func (m *meteredTransform) Name() string { return m.next.Name() }

// Validate forwards to the wrapped transform when it is validatable.
func (m *meteredTransform) Validate() error {
	if v, ok := m.next.(pipeline.Validator); ok {
		return v.Validate()
	}
	return nil
}

// Apply runs the wrapped transform through the standard call contract and
// records duration and outcome.
func (m *meteredTransform) Apply(ctx context.Context, p *pipeline.Pipeline, data any, extra ...any) (any, error) {
	start := time.Now()
	out, err := pipeline.Run(ctx, m.next, p, data, extra...)

	status := "success"
	if err != nil {
		status = "error"
	}
	m.collector.applyDuration.WithLabelValues(m.next.Name()).Observe(time.Since(start).Seconds())
	m.collector.applyTotal.WithLabelValues(m.next.Name(), status).Inc()

	return out, err
}
