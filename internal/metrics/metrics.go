// Package metrics collects integration counters. The default collector is
// a no-op; the Prometheus-backed collector backs the import command's run
// summary and exposes a registry for callers that serve an endpoint.
package metrics

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records integration outcomes.
type Collector interface {
	// RecordIntegration records one finished run_integration call.
	RecordIntegration(ctx context.Context, entity string, outcome string, durationMs int64)
	// RecordError records a failed integration by error kind.
	RecordError(ctx context.Context, entity string, errorKind string)
}

// PromCollector is the Prometheus-backed Collector.
type PromCollector struct {
	integrationsTotal   *prometheus.CounterVec
	integrationDuration *prometheus.HistogramVec
	errorsTotal         *prometheus.CounterVec
	registry            *prometheus.Registry
}

// NewPromCollector creates a collector with its own registry.
func NewPromCollector() *PromCollector {
	registry := prometheus.NewRegistry()

	integrationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kollator_integrations_total",
			Help: "Total number of integration runs by entity type and outcome",
		},
		[]string{"entity", "outcome"},
	)

	integrationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kollator_integration_duration_seconds",
			Help:    "Duration of integration runs by entity type",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"entity"},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kollator_integration_errors_total",
			Help: "Total number of failed integration runs by entity type and error kind",
		},
		[]string{"entity", "error_kind"},
	)

	registry.MustRegister(integrationsTotal)
	registry.MustRegister(integrationDuration)
	registry.MustRegister(errorsTotal)

	return &PromCollector{
		integrationsTotal:   integrationsTotal,
		integrationDuration: integrationDuration,
		errorsTotal:         errorsTotal,
		registry:            registry,
	}
}

// Registry returns the collector's registry for exposition.
func (c *PromCollector) Registry() *prometheus.Registry {
	return c.registry
}

// Summary renders the gathered counters as plain text, one line per labeled
// series. Histograms are summarized by their sample count. Series that were
// never incremented do not appear.
func (c *PromCollector) Summary() (string, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}

	var b strings.Builder
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			}
			fmt.Fprintf(&b, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), value)
		}
	}
	return b.String(), nil
}

func (c *PromCollector) RecordIntegration(_ context.Context, entity string, outcome string, durationMs int64) {
	c.integrationsTotal.WithLabelValues(entity, outcome).Inc()
	c.integrationDuration.WithLabelValues(entity).Observe(float64(durationMs) / 1000.0)
}

func (c *PromCollector) RecordError(_ context.Context, entity string, errorKind string) {
	c.errorsTotal.WithLabelValues(entity, errorKind).Inc()
}

// NoopCollector discards every measurement.
type NoopCollector struct{}

func NewNoopCollector() *NoopCollector { return &NoopCollector{} }

func (*NoopCollector) RecordIntegration(context.Context, string, string, int64) {}
func (*NoopCollector) RecordError(context.Context, string, string)              {}
