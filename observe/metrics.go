package observe

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bjaus/invoke"
)

// Outcome label values.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeNoAdapter = "no_adapter"
	OutcomeResolve   = "resolve_error"
	OutcomeTransform = "transform_error"
)

// Collector holds the invocation metrics.
type Collector struct {
	Invocations    *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
	RemoteInvokes  *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec
}

// NewCollector creates and registers the invocation metrics.
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		Invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Total number of handler invocations",
			},
			[]string{"service", "adapter", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "invocation_duration_seconds",
				Help:      "Handler duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "adapter"},
		),
		RemoteInvokes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_invokes_total",
				Help:      "Total number of outbound service invokes",
			},
			[]string{"service", "status"},
		),
		RemoteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_invoke_duration_seconds",
				Help:      "Outbound invoke duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service"},
		),
	}

	for _, col := range []prometheus.Collector{c.Invocations, c.Duration, c.RemoteInvokes, c.RemoteDuration} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Options returns provider options that record into c.
func (c *Collector) Options() []invoke.Option {
	return []invoke.Option{
		invoke.WithOnSuccess(func(_ context.Context, service, adapter string, d time.Duration) {
			c.Invocations.WithLabelValues(service, adapter, OutcomeSuccess).Inc()
			c.Duration.WithLabelValues(service, adapter).Observe(d.Seconds())
		}),
		invoke.WithOnFailure(func(_ context.Context, service, adapter string, _ error, d time.Duration) {
			c.Invocations.WithLabelValues(service, adapter, OutcomeFailure).Inc()
			c.Duration.WithLabelValues(service, adapter).Observe(d.Seconds())
		}),
		invoke.WithOnNoAdapter(func(_ context.Context, service string, _ []byte) {
			c.Invocations.WithLabelValues(service, "", OutcomeNoAdapter).Inc()
		}),
		invoke.WithOnResolveError(func(_ context.Context, service, adapter string, _ error) {
			c.Invocations.WithLabelValues(service, adapter, OutcomeResolve).Inc()
		}),
		invoke.WithOnTransformError(func(_ context.Context, service, adapter string, _ error) {
			c.Invocations.WithLabelValues(service, adapter, OutcomeTransform).Inc()
		}),
		invoke.WithOnInvoke(func(_ context.Context, service, _ string, err error, d time.Duration) {
			status := OutcomeSuccess
			if err != nil {
				status = OutcomeFailure
			}
			c.RemoteInvokes.WithLabelValues(service, status).Inc()
			c.RemoteDuration.WithLabelValues(service).Observe(d.Seconds())
		}),
	}
}

// Metrics registers a Collector on reg and returns its provider options.
func Metrics(reg prometheus.Registerer, namespace string) ([]invoke.Option, error) {
	c, err := NewCollector(reg, namespace)
	if err != nil {
		return nil, err
	}
	return c.Options(), nil
}
