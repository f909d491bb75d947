// Package prompush implements a Prometheus Pushgateway backend for the metrics package.
//
// A batch job exits before any scraper would see it, so metrics are pushed once on Flush
// instead of being served over HTTP.
package prompush

import (
	"fmt"

	"github.com/litetable/litetable-extract/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	counter  *prometheus.CounterVec
	units    *prometheus.CounterVec
	duration *prometheus.SummaryVec
}

// NewBackend constructs a Prometheus Pushgateway backend.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "litetable_extract"
	}

	reg := prometheus.NewRegistry()

	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.CounterMetric,
			Help: "Named job counters, e.g. rows missing their source column.",
		},
		[]string{"job_id", "counter"},
	)
	units := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.UnitMetric,
			Help: "Processing unit attempts partitioned by outcome.",
		},
		[]string{"job_id", "status"},
	)
	duration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.DurationMetric,
			Help:       "Wall time of a job run in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"job_id", "status"},
	)

	for _, c := range []prometheus.Collector{counter, units, duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        reg,
		counter:    counter,
		units:      units,
		duration:   duration,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.CounterMetric:
		b.counter.WithLabelValues(labels["job"], labels["counter"]).Add(delta)
	case metrics.UnitMetric:
		b.units.WithLabelValues(labels["job"], labels["status"]).Add(delta)
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.DurationMetric {
		return
	}
	b.duration.WithLabelValues(labels["job"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
