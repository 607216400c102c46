package metrics

import (
	"sync"
)

// Metrics tracks server counters
type Metrics struct {
	mu sync.RWMutex

	connections     int64
	requests        int64
	bytesSent       int64
	statusClasses   [6]int64
	accessLogErrors int64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncrementConnections increments the accepted connections counter
func (m *Metrics) IncrementConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections++
}

// IncrementRequests increments the parsed requests counter
func (m *Metrics) IncrementRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
}

// RecordResponse counts a response by status class and its body size
func (m *Metrics) RecordResponse(status int, bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	class := status / 100
	if class < 1 || class > 5 {
		class = 0
	}
	m.statusClasses[class]++
	m.bytesSent += bytes
}

// IncrementAccessLogErrors increments the failed access log writes counter
func (m *Metrics) IncrementAccessLogErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessLogErrors++
}

// GetSnapshot returns a snapshot of all metrics
func (m *Metrics) GetSnapshot() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]int64{
		"connections":       m.connections,
		"requests":          m.requests,
		"bytes_sent":        m.bytesSent,
		"responses_2xx":     m.statusClasses[2],
		"responses_3xx":     m.statusClasses[3],
		"responses_4xx":     m.statusClasses[4],
		"responses_5xx":     m.statusClasses[5],
		"responses_other":   m.statusClasses[0] + m.statusClasses[1],
		"access_log_errors": m.accessLogErrors,
	}
}
