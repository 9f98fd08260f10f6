package web

import (
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"achievements/internal/adapters/http/middleware"
	"achievements/internal/adapters/http/perf"
	"achievements/internal/adapters/proof"
	achievementStore "achievements/internal/adapters/storage/achievement"
	eventStore "achievements/internal/adapters/storage/event"
	"achievements/internal/application/orchestrators"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Stores holds all storage dependencies.
type Stores struct {
	AchievementStore achievementStore.Store
	EventStore       eventStore.Store
}

// Options holds the non-storage collaborators of the mux.
type Options struct {
	Proofs      *proof.LocalResolver             // optional: nil disables proof uploads
	Notifier    orchestrators.SubmissionNotifier // optional
	Collector   *perf.Collector                  // optional: nil disables /admin/perf
	PerfToken   string                           // Bearer token for /admin/perf; empty disables it
	CSRF        *middleware.CSRFConfig           // optional: nil disables CSRF checks
	RateLimiter *middleware.RateLimiter          // optional
	SlowRequest time.Duration
}

// Global stores instance (set by NewMux)
var stores *Stores

var (
	proofs        *proof.LocalResolver
	notifier      orchestrators.SubmissionNotifier
	perfCollector *perf.Collector
)

// LoadCSRFKey decodes a hex CSRF secret.
// PRE: none
// POST: Returns a 32-byte key. An empty keyHex is an error in production and
// yields a random key otherwise.
func LoadCSRFKey(keyHex string, production bool, random func([]byte) (int, error)) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, errors.New("ACHIEVEMENTS_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if production {
		return nil, errors.New("ACHIEVEMENTS_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := random(key); err != nil {
		return nil, fmt.Errorf("generate CSRF key: %w", err)
	}
	return key, nil
}

// NewMux wires HTTP handlers for the app.
// PRE: s.AchievementStore is non-nil
// POST: Returns the routed handler wrapped in the middleware chain
func NewMux(s *Stores, opts Options) http.Handler {
	stores = s
	proofs = opts.Proofs
	notifier = opts.Notifier
	perfCollector = opts.Collector

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	registerRoutes(mux)
	if opts.Collector != nil && opts.PerfToken != "" {
		mux.Handle("GET /admin/perf", middleware.RequireBearer(opts.PerfToken)(http.HandlerFunc(handleAdminPerf)))
	}

	var chain []func(http.Handler) http.Handler
	if opts.CSRF != nil {
		chain = append(chain, middleware.CSRF(*opts.CSRF))
	}
	if opts.RateLimiter != nil {
		chain = append(chain, middleware.RateLimit(opts.RateLimiter))
	}
	threshold := opts.SlowRequest
	if threshold <= 0 {
		threshold = middleware.SlowRequestThreshold()
	}
	chain = append(chain,
		middleware.LimitBody(submissionLimit()),
		middleware.SecurityHeaders,
		middleware.Timing(opts.Collector, threshold),
	)

	// Timing -> SecurityHeaders -> LimitBody -> RateLimit -> CSRF -> Mux
	return middleware.Chain(mux, chain...)
}

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", handleRoot)
	mux.HandleFunc("GET /dashboard", handleDashboard)
	mux.HandleFunc("GET /achievements/new", handleNewAchievementForm)
	mux.HandleFunc("POST /achievements", handlePostAchievement)
	mux.HandleFunc("GET /analytics", handleAnalytics)
	mux.HandleFunc("GET /events", handleEvents)
	mux.HandleFunc("/api/achievements", handleAPIAchievements)
	mux.HandleFunc("GET /api/stats", handleAPIStats)
	mux.HandleFunc("GET /api/events", handleAPIEvents)
	mux.HandleFunc("GET /uploads/{name}", handleUpload)
}
