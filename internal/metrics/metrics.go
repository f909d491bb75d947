// Package metrics records job counters and processing-unit outcomes through a pluggable backend.
//
// The backend is process-wide and defaults to a no-op, so instrumented code never has to check
// whether metrics are configured. Concrete systems live in subpackages (prompush, datadog).
package metrics

import "time"

const (
	CounterMetric  = "litetable_job_counter_total"
	UnitMetric     = "litetable_job_units_total"
	DurationMetric = "litetable_job_duration_seconds"
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

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordCounter forwards a named job counter increment, e.g. MISSING_ADDRESS.
func RecordCounter(job, counter string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(CounterMetric, float64(delta), Labels{
		"job":     job,
		"counter": counter,
	})
}

// RecordUnit counts one processing unit outcome ("success", "retry", "failure").
func RecordUnit(job, status string) {
	backend.IncCounter(UnitMetric, 1, Labels{
		"job":    job,
		"status": status,
	})
}

// RecordJob records the wall time of a whole job run.
func RecordJob(job string, succeeded bool, d time.Duration) {
	status := "success"
	if !succeeded {
		status = "failure"
	}
	backend.ObserveHistogram(DurationMetric, d.Seconds(), Labels{
		"job":    job,
		"status": status,
	})
}
