// Package metrics records operational metrics for table operations and data
// movement (creates, copies, inserts and verifications).
//
// Callers record through package-level functions that forward to a single
// pluggable Backend. The default backend discards everything, so recording is
// always safe. Concrete systems live in subpackages: prompush (Prometheus
// Pushgateway) and datadog (DogStatsD).
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by this package.
const (
	OpTotal           = "dbtools_operation_total"
	OpDurationSeconds = "dbtools_operation_duration_seconds"
	RowsTotal         = "dbtools_rows_total"
	PagesTotal        = "dbtools_pages_total"
)

// Row kinds used with RecordRows.
const (
	KindSelected = "selected"
	KindInserted = "inserted"
	KindCopied   = "copied"
	KindCompared = "compared"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
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

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordOp counts one execution of op (create, copy, insert, verify, ...)
// and records its duration, labelled with the outcome.
func RecordOp(job, op string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    job,
		"op":     op,
		"status": status,
	}
	b := current()
	b.IncCounter(OpTotal, 1, lbls)
	b.ObserveHistogram(OpDurationSeconds, d.Seconds(), lbls)
}

// RecordRows adds delta rows of the given kind. Non-positive deltas are ignored.
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordPages adds delta fetched pages for job.
func RecordPages(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(PagesTotal, float64(delta), Labels{
		"job": job,
	})
}
