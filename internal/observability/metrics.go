package observability

import (
	"sync"
	"time"
)

type requestKey struct {
	path   string
	method string
	status int
}

type errorKey struct {
	path   string
	method string
	code   string
}

// Metrics keeps in-process counters for the HTTP surface: request totals and
// accumulated latency per route/status, plus error totals per domain code.
type Metrics struct {
	mu       sync.Mutex
	requests map[requestKey]int64
	latency  map[requestKey]time.Duration
	errors   map[errorKey]int64
}

// NewMetrics builds empty counters.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[requestKey]int64),
		latency:  make(map[requestKey]time.Duration),
		errors:   make(map[errorKey]int64),
	}
}

// RecordRequest counts a finished request and accumulates its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := requestKey{path: path, method: method, status: status}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[key]++
	m.latency[key] += duration
}

// RecordError counts a request that surfaced a domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[errorKey{path: path, method: method, code: code}]++
}

// RequestCount returns the number of requests recorded for one route/status.
func (m *Metrics) RequestCount(path, method string, status int) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[requestKey{path: path, method: method, status: status}]
}

// ErrorCount returns the number of errors recorded for one route/code.
func (m *Metrics) ErrorCount(path, method, code string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[errorKey{path: path, method: method, code: code}]
}
