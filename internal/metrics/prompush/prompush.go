// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// Collected metrics are pushed to a Pushgateway instead of being exposed on a
// scrape endpoint, which suits short-lived validate and seed runs.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"ytetl/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec
	stepDuration *prometheus.SummaryVec

	rowCounter     *prometheus.CounterVec
	findingCounter *prometheus.CounterVec
	batchCounter   prometheus.Counter

	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewBackend constructs a Pushgateway backend. jobName is the Pushgateway
// grouping job; gatewayURL is the base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "ytetl"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline step executions by step and status.",
		}, []string{"step", "status"}),
		stepDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Pipeline step duration in seconds by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"step", "status"}),
		rowCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Row counts by kind (parsed, warnings, inserted).",
		}, []string{"kind"}),
		findingCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.FindingsTotal,
			Help: "Data quality findings by check.",
		}, []string{"check"}),
		batchCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Insert batches flushed while seeding.",
		}),
		requestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RequestsTotal,
			Help: "API requests by route, method and status class.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metrics.RequestDuration,
			Help:    "API request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}

	for _, c := range []prometheus.Collector{
		b.stepCounter, b.stepDuration, b.rowCounter, b.findingCounter,
		b.batchCounter, b.requestCounter, b.requestDuration,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}
	return b, nil
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.RowsTotal:
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
	case metrics.FindingsTotal:
		b.findingCounter.WithLabelValues(labels["check"]).Add(delta)
	case metrics.BatchesTotal:
		b.batchCounter.Add(delta)
	case metrics.RequestsTotal:
		b.requestCounter.WithLabelValues(labels["route"], labels["method"], labels["code"]).Add(delta)
	}
}

// ObserveHistogram implements metrics.Backend. Unknown names are ignored.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	switch name {
	case metrics.StepDuration:
		b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
	case metrics.RequestDuration:
		b.requestDuration.WithLabelValues(labels["route"], labels["method"], labels["code"]).Observe(value)
	}
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
