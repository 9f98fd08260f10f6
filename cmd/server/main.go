package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	emailPkg "achievements/internal/adapters/email"
	web "achievements/internal/adapters/http"
	"achievements/internal/adapters/http/middleware"
	"achievements/internal/adapters/http/perf"
	"achievements/internal/adapters/proof"
	"achievements/internal/adapters/storage"
	achievementStore "achievements/internal/adapters/storage/achievement"
	eventStore "achievements/internal/adapters/storage/event"
	"achievements/internal/application/orchestrators"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// Form submissions allowed per client before throttling, refilled one per interval.
const (
	writeBurst    = 10
	writeInterval = 6 * time.Second
)

func main() {
	env := envOrDefault("ACHIEVEMENTS_ENV", "development")
	production := env == "production"

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The default in-memory database lives only as long as the process.
	dbPath := envOrDefault("ACHIEVEMENTS_DB_PATH", ":memory:")
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Every connection to :memory: is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(8)
		db.SetMaxIdleConns(8)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db, dbPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector)
	achievements := achievementStore.NewSQLiteStore(timedDB)
	events := eventStore.NewSQLiteStore(timedDB)

	migrated, err := orchestrators.ExecuteMigrateLegacyCategories(ctx, orchestrators.MigrateLegacyCategoriesDeps{Store: achievements})
	if err != nil {
		log.Fatalf("failed to migrate legacy categories: %v", err)
	}
	if len(migrated.Unknown) > 0 {
		log.Printf("WARNING: %d achievements have an unrecognised category: %s", len(migrated.Unknown), strings.Join(migrated.Unknown, ", "))
	}

	seeded, err := orchestrators.ExecuteSeedEvents(ctx, orchestrators.SeedEventsDeps{EventStore: events, GenerateID: uuid.NewString})
	if err != nil {
		log.Fatalf("failed to seed events: %v", err)
	}
	log.Printf("Seeded %d campus events", seeded)

	if envOrDefault("ACHIEVEMENTS_SEED_SAMPLES", "false") == "true" {
		n, err := orchestrators.ExecuteSeedSampleAchievements(ctx, orchestrators.SeedSampleAchievementsDeps{
			Store:      achievements,
			GenerateID: uuid.NewString,
			Now:        time.Now,
		})
		if err != nil {
			log.Fatalf("failed to seed sample achievements: %v", err)
		}
		log.Printf("Seeded %d sample achievements", n)
	}

	// Configure email sender
	var sender emailPkg.Sender
	resendKey := os.Getenv("ACHIEVEMENTS_RESEND_KEY")
	emailFrom := envOrDefault("ACHIEVEMENTS_RESEND_FROM", "Student Achievements <noreply@example.edu>")
	if resendKey != "" {
		sender = emailPkg.NewResendSender(resendKey, emailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if production {
			log.Println("WARNING: ACHIEVEMENTS_RESEND_KEY is not set, approver email is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop, set ACHIEVEMENTS_RESEND_KEY for real delivery)")
		}
	}
	approvers := strings.Split(os.Getenv("ACHIEVEMENTS_APPROVER_EMAIL"), ",")
	notifier := emailPkg.NewSubmissionNotifier(sender, approvers, os.Getenv("ACHIEVEMENTS_BASE_URL"))

	proofs, err := proof.NewLocalResolver(envOrDefault("ACHIEVEMENTS_UPLOAD_DIR", "uploads"), "/uploads", proof.DefaultMaxBytes)
	if err != nil {
		log.Fatalf("failed to prepare upload directory: %v", err)
	}

	csrfKey, err := web.LoadCSRFKey(os.Getenv("ACHIEVEMENTS_CSRF_KEY"), production, rand.Read)
	if err != nil {
		log.Fatalf("failed to load CSRF key: %v", err)
	}

	limiter := middleware.NewRateLimiter(writeBurst, writeInterval)
	go limiter.Janitor(ctx)

	perfToken := os.Getenv("ACHIEVEMENTS_PERF_TOKEN")
	if perfToken == "" {
		log.Println("ACHIEVEMENTS_PERF_TOKEN is not set, /admin/perf is disabled")
	}

	handler := web.NewMux(&web.Stores{AchievementStore: achievements, EventStore: events}, web.Options{
		Proofs:      proofs,
		Notifier:    notifier,
		Collector:   collector,
		PerfToken:   perfToken,
		CSRF:        &middleware.CSRFConfig{Key: csrfKey, Secure: production},
		RateLimiter: limiter,
		SlowRequest: middleware.SlowRequestThreshold(),
	})

	addr := envOrDefault("ACHIEVEMENTS_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Achievements %s starting on %s (env=%s, schema=%d)", version, addr, env, storage.LatestSchemaVersion())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
