package observability

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/tickets", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/tickets", "GET", 200, 30*time.Millisecond)
	m.RecordError("/api/tickets/:id", "PATCH", "CONCURRENCY_CONFLICT")

	snap := m.Snapshot()
	key := "/api/tickets|GET|200"
	if snap.Requests[key] != 2 {
		t.Fatalf("requests = %v", snap.Requests)
	}
	if snap.AvgLatencyMS[key] != 20 {
		t.Fatalf("avg latency = %v", snap.AvgLatencyMS[key])
	}
	if snap.Errors["/api/tickets/:id|PATCH|CONCURRENCY_CONFLICT"] != 1 {
		t.Fatalf("errors = %v", snap.Errors)
	}

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/", "GET", 200, time.Millisecond)
	if len(nilMetrics.Snapshot().Requests) != 0 {
		t.Fatal("nil metrics should be inert")
	}
}
