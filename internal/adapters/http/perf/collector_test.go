package perf

import (
	"sync"
	"testing"
	"time"
)

var t0 = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

// TestCollector_Snapshot tests grouping by kind and path.
func TestCollector_Snapshot(t *testing.T) {
	c := NewCollector(100)
	c.Record(Entry{Kind: KindRequest, Path: "GET /dashboard", StatusCode: 200, DurationMs: 10, Timestamp: t0})
	c.Record(Entry{Kind: KindRequest, Path: "GET /dashboard", StatusCode: 200, DurationMs: 30, Timestamp: t0})
	c.Record(Entry{Kind: KindRequest, Path: "POST /achievements", StatusCode: 500, DurationMs: 5, Timestamp: t0})
	c.Record(Entry{Kind: KindQuery, Path: "SELECT achievement", DurationMs: 2, Timestamp: t0})

	snap := c.Snapshot(t0.Add(-time.Minute), 10)
	if snap.TotalRecorded != 4 || snap.Requests != 3 || snap.ServerErrors != 1 {
		t.Errorf("totals = %d/%d/%d, want 4/3/1", snap.TotalRecorded, snap.Requests, snap.ServerErrors)
	}
	if len(snap.SlowestPaths) != 2 {
		t.Fatalf("SlowestPaths = %+v", snap.SlowestPaths)
	}
	top := snap.SlowestPaths[0]
	if top.Path != "GET /dashboard" || top.AvgMs != 20 || top.MaxMs != 30 || top.Count != 2 {
		t.Errorf("top path = %+v", top)
	}
	if len(snap.SlowestQueries) != 1 || snap.SlowestQueries[0].Path != "SELECT achievement" {
		t.Errorf("SlowestQueries = %+v", snap.SlowestQueries)
	}
}

// TestCollector_TopN tests truncation of the slowest list.
func TestCollector_TopN(t *testing.T) {
	c := NewCollector(100)
	for i, p := range []string{"GET /a", "GET /b", "GET /c"} {
		c.Record(Entry{Kind: KindRequest, Path: p, DurationMs: float64(i + 1), Timestamp: t0})
	}
	snap := c.Snapshot(t0, 2)
	if len(snap.SlowestPaths) != 2 || snap.SlowestPaths[0].Path != "GET /c" || snap.SlowestPaths[1].Path != "GET /b" {
		t.Errorf("SlowestPaths = %+v", snap.SlowestPaths)
	}
}

// TestCollector_RingOverwrites tests that only the newest entries survive.
func TestCollector_RingOverwrites(t *testing.T) {
	c := NewCollector(3)
	for i := 0; i < 5; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /events", DurationMs: float64(i), Timestamp: t0})
	}
	if c.TotalRecorded() != 5 {
		t.Errorf("TotalRecorded = %d, want 5", c.TotalRecorded())
	}
	snap := c.Snapshot(t0, 10)
	if snap.Requests != 3 {
		t.Errorf("Requests = %d, want 3", snap.Requests)
	}
	// Entries 2, 3 and 4 remain.
	if got := snap.SlowestPaths[0].AvgMs; got != 3 {
		t.Errorf("AvgMs = %v, want 3", got)
	}
}

// TestCollector_Percentiles tests P50/P95/P99 interpolation.
func TestCollector_Percentiles(t *testing.T) {
	c := NewCollector(200)
	for i := 1; i <= 100; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /analytics", DurationMs: float64(i), Timestamp: t0})
	}
	snap := c.Snapshot(t0, 10)
	checks := []struct {
		name     string
		got      float64
		min, max float64
	}{
		{"p50", snap.RequestP50Ms, 50, 51},
		{"p95", snap.RequestP95Ms, 95, 96},
		{"p99", snap.RequestP99Ms, 99, 100},
	}
	for _, c := range checks {
		if c.got < c.min || c.got > c.max {
			t.Errorf("%s = %v, want in [%v, %v]", c.name, c.got, c.min, c.max)
		}
	}
}

// TestCollector_Since tests that older entries are excluded.
func TestCollector_Since(t *testing.T) {
	c := NewCollector(100)
	c.Record(Entry{Kind: KindRequest, Path: "GET /old", DurationMs: 100, Timestamp: t0.Add(-2 * time.Hour)})
	c.Record(Entry{Kind: KindRequest, Path: "GET /new", DurationMs: 10, Timestamp: t0})

	snap := c.Snapshot(t0.Add(-time.Hour), 10)
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].Path != "GET /new" {
		t.Errorf("SlowestPaths = %+v", snap.SlowestPaths)
	}
}

// TestCollector_Empty tests a snapshot with nothing recorded.
func TestCollector_Empty(t *testing.T) {
	snap := NewCollector(0).Snapshot(t0, 10)
	if snap.Requests != 0 || snap.RequestP99Ms != 0 || len(snap.SlowestPaths) != 0 {
		t.Errorf("snapshot = %+v", snap)
	}
}

// TestCollector_ConcurrentWrites tests Record under contention.
func TestCollector_ConcurrentWrites(t *testing.T) {
	c := NewCollector(1000)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				c.Record(Entry{Kind: KindRequest, Path: "GET /api/stats", DurationMs: float64(n), Timestamp: t0})
			}
		}(i)
	}
	wg.Wait()
	if c.TotalRecorded() != 1000 {
		t.Errorf("TotalRecorded = %d, want 1000", c.TotalRecorded())
	}
}

// BenchmarkCollectorRecord measures the per-call cost of Record.
func BenchmarkCollectorRecord(b *testing.B) {
	c := NewCollector(DefaultRingSize)
	e := Entry{Kind: KindRequest, Path: "GET /dashboard", StatusCode: 200, DurationMs: 1.5, Timestamp: t0}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c.Record(e)
	}
}

// BenchmarkCollectorSnapshot measures aggregation over a full ring.
func BenchmarkCollectorSnapshot(b *testing.B) {
	c := NewCollector(DefaultRingSize)
	for i := 0; i < DefaultRingSize; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /dashboard", StatusCode: 200, DurationMs: float64(i % 100), Timestamp: t0})
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Snapshot(t0, 10)
	}
}
