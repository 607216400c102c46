package metrics

import (
	"sync"
	"testing"
)

func TestMetrics_IncrementConnections(t *testing.T) {
	m := NewMetrics()
	m.IncrementConnections()

	snapshot := m.GetSnapshot()
	if snapshot["connections"] != 1 {
		t.Errorf("expected connections 1, got %d", snapshot["connections"])
	}
}

func TestMetrics_IncrementRequests(t *testing.T) {
	m := NewMetrics()
	m.IncrementRequests()

	snapshot := m.GetSnapshot()
	if snapshot["requests"] != 1 {
		t.Errorf("expected requests 1, got %d", snapshot["requests"])
	}
}

func TestMetrics_RecordResponse(t *testing.T) {
	m := NewMetrics()
	m.RecordResponse(200, 11)
	m.RecordResponse(304, 0)
	m.RecordResponse(404, 120)
	m.RecordResponse(403, 120)
	m.RecordResponse(500, 130)
	m.RecordResponse(999, 0)

	snapshot := m.GetSnapshot()

	expected := map[string]int64{
		"responses_2xx":   1,
		"responses_3xx":   1,
		"responses_4xx":   2,
		"responses_5xx":   1,
		"responses_other": 1,
		"bytes_sent":      381,
	}

	for key, expectedValue := range expected {
		if snapshot[key] != expectedValue {
			t.Errorf("expected %s %d, got %d", key, expectedValue, snapshot[key])
		}
	}
}

func TestMetrics_IncrementAccessLogErrors(t *testing.T) {
	m := NewMetrics()
	m.IncrementAccessLogErrors()

	snapshot := m.GetSnapshot()
	if snapshot["access_log_errors"] != 1 {
		t.Errorf("expected access_log_errors 1, got %d", snapshot["access_log_errors"])
	}
}

func TestMetrics_ConcurrentAccess(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup

	// Concurrent increments
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementConnections()
			m.IncrementRequests()
			m.RecordResponse(200, 10)
		}()
	}

	wg.Wait()

	snapshot := m.GetSnapshot()
	if snapshot["connections"] != 100 {
		t.Errorf("expected connections 100, got %d", snapshot["connections"])
	}
	if snapshot["responses_2xx"] != 100 {
		t.Errorf("expected responses_2xx 100, got %d", snapshot["responses_2xx"])
	}
	if snapshot["bytes_sent"] != 1000 {
		t.Errorf("expected bytes_sent 1000, got %d", snapshot["bytes_sent"])
	}
}
