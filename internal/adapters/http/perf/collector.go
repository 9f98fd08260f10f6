// Package perf keeps a bounded in-memory history of request and query timings.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
)

// DefaultRingSize bounds the history kept by the server's collector.
const DefaultRingSize = 10000

// EntryKind tells request timings apart from store query timings.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
)

// Entry is one timed unit of work.
type Entry struct {
	Kind       EntryKind
	Path       string // "GET /dashboard" for requests, "SELECT achievement" for queries
	StatusCode int    // 0 for queries
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a fixed-size ring of entries. When full, the oldest entry is replaced.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	total   atomic.Int64
}

// NewCollector creates a collector holding at most size entries.
// POST: size <= 0 falls back to DefaultRingSize
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores e, replacing the oldest entry once the ring is full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.next] = e
	c.next = (c.next + 1) % len(c.entries)
	c.mu.Unlock()
	c.total.Add(1)
}

// TotalRecorded counts every entry ever recorded, including overwritten ones.
func (c *Collector) TotalRecorded() int64 {
	return c.total.Load()
}

// Snapshot is the JSON body served at /admin/perf.
type Snapshot struct {
	Since          time.Time  `json:"since"`
	TotalRecorded  int64      `json:"total_recorded"`
	Requests       int        `json:"requests"`
	ServerErrors   int        `json:"server_errors"`
	RequestP50Ms   float64    `json:"request_p50_ms"`
	RequestP95Ms   float64    `json:"request_p95_ms"`
	RequestP99Ms   float64    `json:"request_p99_ms"`
	SlowestPaths   []PathStat `json:"slowest_paths"`
	SlowestQueries []PathStat `json:"slowest_queries"`
}

// PathStat aggregates the entries sharing one Path.
type PathStat struct {
	Path    string  `json:"path"`
	Count   int     `json:"count"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	TotalMs float64 `json:"total_ms"`
}

// Snapshot aggregates the entries recorded at or after since.
// PRE: topN > 0
// POST: SlowestPaths and SlowestQueries hold at most topN items, slowest average first
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	live := lo.Filter(c.entries, func(e Entry, _ int) bool {
		return !e.Timestamp.IsZero() && !e.Timestamp.Before(since)
	})
	c.mu.Unlock()

	byKind := lo.GroupBy(live, func(e Entry) EntryKind { return e.Kind })
	requests := byKind[KindRequest]

	snap := Snapshot{
		Since:         since,
		TotalRecorded: c.TotalRecorded(),
		Requests:      len(requests),
		ServerErrors: lo.CountBy(requests, func(e Entry) bool {
			return e.StatusCode >= 500
		}),
		SlowestPaths:   slowest(requests, topN),
		SlowestQueries: slowest(byKind[KindQuery], topN),
	}

	if len(requests) > 0 {
		durations := lo.Map(requests, func(e Entry, _ int) float64 { return e.DurationMs })
		sort.Float64s(durations)
		snap.RequestP50Ms = percentile(durations, 50)
		snap.RequestP95Ms = percentile(durations, 95)
		snap.RequestP99Ms = percentile(durations, 99)
	}
	return snap
}

// percentile interpolates the p-th percentile of sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := p / 100 * float64(len(sorted)-1)
	lower, upper := int(math.Floor(idx)), int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func slowest(entries []Entry, n int) []PathStat {
	stats := lo.MapToSlice(lo.GroupBy(entries, func(e Entry) string { return e.Path }),
		func(path string, group []Entry) PathStat {
			s := PathStat{Path: path, Count: len(group)}
			for _, e := range group {
				s.TotalMs += e.DurationMs
				s.MaxMs = math.Max(s.MaxMs, e.DurationMs)
			}
			s.AvgMs = s.TotalMs / float64(s.Count)
			return s
		})
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].AvgMs != stats[j].AvgMs {
			return stats[i].AvgMs > stats[j].AvgMs
		}
		return stats[i].Path < stats[j].Path
	})
	if len(stats) > n {
		stats = stats[:n]
	}
	return stats
}
