package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the engine and its API.
type Metrics struct {
	mu                   sync.Mutex
	requestCount         map[string]int64
	errorCount           map[string]int64
	sweepsRun            int64
	violationsDetected   int64
	escalationsExecuted  int64
	notificationFailures int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordSweep tallies one completed sweep.
func (m *Metrics) RecordSweep(violations, escalations int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepsRun++
	m.violationsDetected += int64(violations)
	m.escalationsExecuted += int64(escalations)
}

// RecordNotificationFailure tallies a failed notification handoff.
func (m *Metrics) RecordNotificationFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notificationFailures++
}

// EngineSnapshot reports the engine counters.
func (m *Metrics) EngineSnapshot() (sweeps, violations, escalations, notificationFailures int64) {
	if m == nil {
		return 0, 0, 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepsRun, m.violationsDetected, m.escalationsExecuted, m.notificationFailures
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
