package storage

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"achievements/internal/adapters/http/perf"
)

// SQLDB is the database interface used by all stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQueryMs is the default threshold for slow query warnings.
const DefaultSlowQueryMs = 50

// SlowQueryThreshold reads ACHIEVEMENTS_SLOW_QUERY_MS.
// POST: Returns DefaultSlowQueryMs for a missing or non-positive value
func SlowQueryThreshold() time.Duration {
	ms := DefaultSlowQueryMs
	if v := os.Getenv("ACHIEVEMENTS_SLOW_QUERY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ms = n
		}
	}
	return time.Duration(ms) * time.Millisecond
}

// TimedDB labels every statement, records it to a perf collector and warns
// when one runs past the slow-query threshold.
type TimedDB struct {
	db        *sql.DB
	collector *perf.Collector
	threshold time.Duration
}

var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps db with timing instrumentation.
// PRE: db is open; collector may be nil
// POST: threshold is fixed at construction from SlowQueryThreshold
func NewTimedDB(db *sql.DB, collector *perf.Collector) *TimedDB {
	return &TimedDB{db: db, collector: collector, threshold: SlowQueryThreshold()}
}

// QueryLabel names a statement by its verb and first table, e.g. "SELECT achievement".
// Perf snapshots group on this label so parameter values never leak into it.
func QueryLabel(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "EMPTY"
	}
	verb := strings.ToUpper(fields[0])
	var marker string
	switch verb {
	case "SELECT", "DELETE":
		marker = "FROM"
	case "INSERT", "REPLACE":
		marker = "INTO"
	case "UPDATE":
		return verb + " " + tableName(fields, 1)
	default:
		return verb
	}
	for i, f := range fields {
		if strings.EqualFold(f, marker) {
			return verb + " " + tableName(fields, i+1)
		}
	}
	return verb
}

func tableName(fields []string, i int) string {
	if i >= len(fields) {
		return "?"
	}
	name, _, _ := strings.Cut(fields[i], "(")
	return strings.ToLower(strings.TrimRight(name, ",;"))
}

func (t *TimedDB) observe(label string, start time.Time) {
	elapsed := time.Since(start)
	ms := float64(elapsed.Microseconds()) / 1000.0
	if elapsed >= t.threshold {
		slog.Warn("slow_query", "query", label, "duration_ms", ms)
	} else {
		slog.Debug("query", "query", label, "duration_ms", ms)
	}
	if t.collector != nil {
		t.collector.Record(perf.Entry{Kind: perf.KindQuery, Path: label, DurationMs: ms, Timestamp: start})
	}
}

// timed runs one database call and observes it whether or not it fails.
func timed[T any](t *TimedDB, label string, call func() (T, error)) (T, error) {
	defer t.observe(label, time.Now())
	return call()
}

// ExecContext implements SQLDB.
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return timed(t, QueryLabel(query), func() (sql.Result, error) {
		return t.db.ExecContext(ctx, query, args...)
	})
}

// QueryContext implements SQLDB.
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return timed(t, QueryLabel(query), func() (*sql.Rows, error) {
		return t.db.QueryContext(ctx, query, args...)
	})
}

// QueryRowContext implements SQLDB. Errors surface later through Scan.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	defer t.observe(QueryLabel(query), time.Now())
	return t.db.QueryRowContext(ctx, query, args...)
}

// BeginTx implements SQLDB. Statements run on the returned *sql.Tx are not timed.
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return timed(t, "BEGIN", func() (*sql.Tx, error) {
		return t.db.BeginTx(ctx, opts)
	})
}
