// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from validation runs, seeding and the API.
//
// A global backend defaults to a no-op implementation, so metrics are always
// safe to call even when nothing is configured. Concrete systems live in
// subpackages (prompush, datadog) and are installed with SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by every backend.
const (
	StepTotal       = "ytetl_step_total"
	StepDuration    = "ytetl_step_duration_seconds"
	RowsTotal       = "ytetl_rows_total"
	FindingsTotal   = "ytetl_findings_total"
	BatchesTotal    = "ytetl_batches_total"
	RequestsTotal   = "ytetl_http_requests_total"
	RequestDuration = "ytetl_http_request_duration_seconds"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

// Reset restores the no-op backend.
func Reset() {
	mu.Lock()
	backend = nopBackend{}
	mu.Unlock()
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep measures latency and success/failure of one pipeline step
// (ingest, a single check, report write, seed table).
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}

	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow increments a row-level counter. Typical kinds are "parsed",
// "warnings" and "inserted".
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordFindings counts the domain findings produced by one check.
func RecordFindings(job, check string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(FindingsTotal, float64(n), Labels{"job": job, "check": check})
}

// RecordBatches increments the insert batch counter for a job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}

// RecordRequest counts one HTTP request and its latency.
func RecordRequest(route, method string, status int, d time.Duration) {
	lbls := Labels{"route": route, "method": method, "code": statusClass(status)}
	b := current()
	b.IncCounter(RequestsTotal, 1, lbls)
	b.ObserveHistogram(RequestDuration, d.Seconds(), lbls)
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
