//go:build browser

package browser_test

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	_ "modernc.org/sqlite"

	web "achievements/internal/adapters/http"
	"achievements/internal/adapters/http/middleware"
	"achievements/internal/adapters/proof"
	"achievements/internal/adapters/storage"
	achievementStore "achievements/internal/adapters/storage/achievement"
	eventStore "achievements/internal/adapters/storage/event"
	"achievements/internal/application/orchestrators"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	DB      *sql.DB
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
	Stores  *web.Stores
}

// newTestApp wires the full app over a temp SQLite file, seeds the campus
// events and starts an HTTP server with CSRF enabled.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := storage.MigrateDB(db, dbPath); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	stores := &web.Stores{
		AchievementStore: achievementStore.NewSQLiteStore(db),
		EventStore:       eventStore.NewSQLiteStore(db),
	}
	ctx := context.Background()
	if _, err := orchestrators.ExecuteSeedEvents(ctx, orchestrators.SeedEventsDeps{
		EventStore: stores.EventStore,
		GenerateID: uuid.NewString,
	}); err != nil {
		t.Fatalf("failed to seed events: %v", err)
	}

	proofs, err := proof.NewLocalResolver(filepath.Join(tmpDir, "uploads"), "/uploads", proof.DefaultMaxBytes)
	if err != nil {
		t.Fatalf("failed to create proof resolver: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	mux := web.NewMux(stores, web.Options{
		Proofs: proofs,
		CSRF: &middleware.CSRFConfig{
			Key:            bytes.Repeat([]byte("b"), 32),
			TrustedOrigins: []string{fmt.Sprintf("127.0.0.1:%d", port)},
		},
	})
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
		}
	}()

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/dashboard")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	app := &testApp{
		BaseURL: baseURL,
		DB:      db,
		Server:  srv,
		PW:      pw,
		Browser: browser,
		Stores:  stores,
	}
	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		db.Close()
	})
	return app
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// fillAchievement opens the form and fills every field except the proof.
func (a *testApp) fillAchievement(t *testing.T, page playwright.Page, title string) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/achievements/new"); err != nil {
		t.Fatalf("failed to open form: %v", err)
	}
	fields := []struct{ selector, value string }{
		{"#title", title},
		{"#description", "Placed **first** out of forty teams"},
		{"#date", "2024-03-02"},
		{"#organization", "ACM"},
	}
	for _, f := range fields {
		if err := page.Locator(f.selector).Fill(f.value); err != nil {
			t.Fatalf("failed to fill %s: %v", f.selector, err)
		}
	}
	if _, err := page.Locator("#category").SelectOption(playwright.SelectOptionValues{
		Values: playwright.StringSlice("competition"),
	}); err != nil {
		t.Fatalf("failed to select category: %v", err)
	}
}

func waitVisible(t *testing.T, page playwright.Page, selector string) {
	t.Helper()
	if err := page.Locator(selector).WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatalf("%s not shown: %v", selector, err)
	}
}
