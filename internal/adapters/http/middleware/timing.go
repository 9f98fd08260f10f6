package middleware

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"achievements/internal/adapters/http/perf"
)

// DefaultSlowRequestMs is the WARN threshold when ACHIEVEMENTS_SLOW_REQUEST_MS is unset.
const DefaultSlowRequestMs = 200

// RequestIDHeader carries the per-request correlation ID on the response.
const RequestIDHeader = "X-Request-ID"

// SlowRequestThreshold reads ACHIEVEMENTS_SLOW_REQUEST_MS.
// POST: Returns DefaultSlowRequestMs for a missing or non-positive value
func SlowRequestThreshold() time.Duration {
	ms := DefaultSlowRequestMs
	if v := os.Getenv("ACHIEVEMENTS_SLOW_REQUEST_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ms = n
		}
	}
	return time.Duration(ms) * time.Millisecond
}

// statusWriter records the status code written by the handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// Timing logs every request and records it in collector when non-nil.
// Requests slower than threshold log at WARN, the rest at DEBUG.
// Static assets are not timed.
func Timing(collector *perf.Collector, threshold time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			reqID := uuid.NewString()
			w.Header().Set(RequestIDHeader, reqID)
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				elapsed := time.Since(start)
				attrs := []any{
					"request_id", reqID,
					"method", r.Method,
					"path", r.URL.Path,
					"status", sw.status,
					"duration_ms", float64(elapsed.Microseconds()) / 1000,
				}
				if elapsed >= threshold {
					slog.Warn("slow_request", attrs...)
				} else {
					slog.Debug("request", attrs...)
				}
				if collector != nil {
					collector.Record(perf.Entry{
						Kind:       perf.KindRequest,
						Path:       r.Method + " " + routeLabel(r.URL.Path),
						StatusCode: sw.status,
						DurationMs: float64(elapsed.Microseconds()) / 1000,
						Timestamp:  start,
					})
				}
			}()

			next.ServeHTTP(sw, r)
		})
	}
}

// routeLabel collapses content-addressed upload paths so the perf table
// has one row for all of them.
func routeLabel(path string) string {
	if strings.HasPrefix(path, "/uploads/") {
		return "/uploads/{name}"
	}
	return path
}
