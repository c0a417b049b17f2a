// Package metrics accumulates operation counters for a Handle, instrumented
// from every backend call.
package metrics

import (
	"sync"
	"time"
)

// Metrics holds mutex-guarded counters for a Handle's lifetime.
type Metrics struct {
	mutex sync.RWMutex

	Operations    int64
	SuccessfulOps int64
	FailedOps     int64
	AverageOpTime time.Duration
	RouteChanges  int64
	LastUpdate    time.Time
}

// New creates an empty Metrics.
func New() *Metrics {
	return &Metrics{LastUpdate: time.Now()}
}

// RecordOperation records the outcome and duration of an Add/Delete/List/
// DefaultRoute call.
func (m *Metrics) RecordOperation(duration time.Duration, success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.Operations++
	if success {
		m.SuccessfulOps++
	} else {
		m.FailedOps++
	}

	if m.AverageOpTime == 0 {
		m.AverageOpTime = duration
	} else {
		m.AverageOpTime = (m.AverageOpTime + duration) / 2
	}

	m.LastUpdate = time.Now()
}

// RecordRouteChange records a route change event observed on the fanout
// bus, independent of any facade call.
func (m *Metrics) RecordRouteChange() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.RouteChanges++
}

// Stats is a snapshot of the current counters.
type Stats struct {
	Operations    int64
	SuccessfulOps int64
	FailedOps     int64
	AverageOpTime time.Duration
	RouteChanges  int64
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Stats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return Stats{
		Operations:    m.Operations,
		SuccessfulOps: m.SuccessfulOps,
		FailedOps:     m.FailedOps,
		AverageOpTime: m.AverageOpTime,
		RouteChanges:  m.RouteChanges,
	}
}
