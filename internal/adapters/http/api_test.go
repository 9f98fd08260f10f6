package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"achievements/internal/adapters/http/perf"
	domain "achievements/internal/domain/achievement"
)

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

type recordingNotifier struct {
	got []domain.Achievement
}

func (n *recordingNotifier) NotifySubmitted(_ context.Context, a domain.Achievement) error {
	n.got = append(n.got, a)
	return nil
}

// TestAPIListAchievements tests the JSON list and its filters.
func TestAPIListAchievements(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seedAchievements(t, sampleAchievements()...)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all", "", []string{"a3", "a2", "a1"}},
		{"explicit all", "?category=all", []string{"a3", "a2", "a1"}},
		{"category", "?category=conference", []string{"a1"}},
		{"search", "?q=react", []string{"a2"}},
		{"no match", "?category=internship", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.get("/api/achievements" + tt.query)
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}
			got := decodeBody[[]achievementJSON](t, rr)
			ids := make([]string, 0, len(got))
			for _, a := range got {
				ids = append(ids, a.ID)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if rr := env.get("/api/achievements?category=award"); rr.Code != http.StatusBadRequest {
		t.Errorf("unknown category = %d, want 400", rr.Code)
	}
}

// TestAPIListAchievements_Shape tests the wire fields of one record.
func TestAPIListAchievements_Shape(t *testing.T) {
	env := newTestEnv(t, Options{})
	a := ach("a1", "Hackathon", domain.CategoryCompetition, domain.StatusApproved, "2024-03-02")
	a.Organization = "ACM"
	env.seedAchievements(t, a)

	rr := env.get("/api/achievements")
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	got := decodeBody[[]achievementJSON](t, rr)
	want := []achievementJSON{{
		ID:            "a1",
		Title:         "Hackathon",
		Category:      "competition",
		CategoryLabel: "Competitions & Contests",
		Description:   "About Hackathon",
		Date:          "2024-03-02",
		Organization:  "ACM",
		Status:        "approved",
		CreatedAt:     fixedNow.Add(-time.Hour),
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

// TestAPISubmitAchievement tests the JSON submission path.
func TestAPISubmitAchievement(t *testing.T) {
	n := &recordingNotifier{}
	env := newTestEnv(t, Options{Notifier: n})

	rr := env.do(postJSON("/api/achievements",
		`{"title":"AWS Cloud Practitioner","category":"certification","description":"Passed","date":"2024-03-05"}`))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	got := decodeBody[achievementJSON](t, rr)
	if got.ID != "id-001" || got.Status != "pending" || got.CategoryLabel != "Certifications" {
		t.Errorf("created = %+v", got)
	}
	if env.count(t) != 1 {
		t.Errorf("store count = %d, want 1", env.count(t))
	}
	if len(n.got) != 1 || n.got[0].ID != "id-001" {
		t.Errorf("notifier calls = %+v", n.got)
	}
}

// TestAPISubmitAchievement_Errors tests rejected JSON submissions leave the store untouched.
func TestAPISubmitAchievement_Errors(t *testing.T) {
	tests := []struct {
		name       string
		req        func() *http.Request
		wantStatus int
		wantKind   string
		wantFields []string
	}{
		{
			name:       "missing fields",
			req:        func() *http.Request { return postJSON("/api/achievements", `{"title":"x"}`) },
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   string(domain.KindMissingInformation),
			wantFields: []string{"category", "description", "date"},
		},
		{
			name: "invalid category",
			req: func() *http.Request {
				return postJSON("/api/achievements", `{"title":"x","category":"award","description":"d","date":"2024-03-01"}`)
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   string(domain.KindInvalidField),
			wantFields: []string{"category"},
		},
		{
			name: "unknown field",
			req: func() *http.Request {
				return postJSON("/api/achievements", `{"title":"x","status":"approved"}`)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed",
			req:        func() *http.Request { return postJSON("/api/achievements", `{"title":`) },
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "not json",
			req: func() *http.Request {
				return postForm("/api/achievements", validForm())
			},
			wantStatus: http.StatusUnsupportedMediaType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, Options{})
			rr := env.do(tt.req())
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantKind != "" {
				got := decodeBody[validationErrorJSON](t, rr)
				if got.Kind != tt.wantKind {
					t.Errorf("kind = %q, want %q", got.Kind, tt.wantKind)
				}
				if diff := cmp.Diff(tt.wantFields, got.Fields); diff != "" {
					t.Errorf("fields mismatch (-want +got):\n%s", diff)
				}
				if got.Title == "" || got.Error == "" {
					t.Errorf("missing title or message: %+v", got)
				}
			}
			if n := env.count(t); n != 0 {
				t.Errorf("store has %d records, want 0", n)
			}
		})
	}
}

// TestAPIAchievements_MethodNotAllowed tests the Allow header.
func TestAPIAchievements_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, Options{})
	rr := env.do(httptest.NewRequest(http.MethodDelete, "/api/achievements", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("Allow") != "GET, POST" {
		t.Errorf("Allow = %q", rr.Header().Get("Allow"))
	}
}

// TestAPIStats tests the analytics JSON.
func TestAPIStats(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seedAchievements(t, sampleAchievements()...)

	rr := env.get("/api/stats")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	got := decodeBody[statsJSON](t, rr)
	want := summaryJSON{Total: 3, Approved: 2, Pending: 1, Categories: 3, ThisMonth: 1}
	if diff := cmp.Diff(want, got.Summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	months := make([]string, 0, len(got.Monthly))
	for _, m := range got.Monthly {
		months = append(months, m.Key)
	}
	if diff := cmp.Diff([]string{"2024-01", "2024-02", "2024-03"}, months); diff != "" {
		t.Errorf("monthly mismatch (-want +got):\n%s", diff)
	}
	if len(got.Statuses) != 2 {
		t.Errorf("statuses = %+v", got.Statuses)
	}
}

// TestAPIStats_StoreError tests failures are not leaked.
func TestAPIStats_StoreError(t *testing.T) {
	newTestEnv(t, Options{})
	h := NewMux(&Stores{AchievementStore: errStore{}}, Options{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rr.Code)
	}
}

// TestAPIEvents tests the events feed and its query validation.
func TestAPIEvents(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seedEvents(t, sampleEvents()...)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantIDs    []string
	}{
		{"all", "", http.StatusOK, []string{"e1", "e2"}},
		{"limit", "?limit=1", http.StatusOK, []string{"e1"}},
		{"from", "?from=2024-04-16", http.StatusOK, []string{"e2"}},
		{"bad from", "?from=tomorrow", http.StatusBadRequest, nil},
		{"bad limit", "?limit=-1", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.get("/api/events" + tt.query)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantIDs == nil {
				return
			}
			got := decodeBody[[]eventJSON](t, rr)
			ids := make([]string, 0, len(got))
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			if diff := cmp.Diff(tt.wantIDs, ids); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}

	got := decodeBody[[]eventJSON](t, env.get("/api/events?limit=1"))
	if got[0].SpotsLeft != 55 || got[0].MaxAttendees != 300 {
		t.Errorf("event = %+v", got[0])
	}
}

// TestAdminPerf tests the timing snapshot endpoint.
func TestAdminPerf(t *testing.T) {
	c := perf.NewCollector(100)
	env := newTestEnv(t, Options{Collector: c, PerfToken: "perf-secret"})
	c.Record(perf.Entry{
		Kind:       perf.KindRequest,
		Path:       "GET /dashboard",
		StatusCode: http.StatusOK,
		DurationMs: 40,
		Timestamp:  fixedNow.Add(-time.Minute),
	})
	authed := func(path, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		return env.do(req)
	}

	rr := authed("/admin/perf?window=10m", "Bearer perf-secret")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	got := decodeBody[perf.Snapshot](t, rr)
	if got.Requests != 1 || len(got.SlowestPaths) != 1 || got.SlowestPaths[0].Path != "GET /dashboard" {
		t.Errorf("snapshot = %+v", got)
	}

	if rr := authed("/admin/perf?window=soon", "Bearer perf-secret"); rr.Code != http.StatusBadRequest {
		t.Errorf("bad window = %d, want 400", rr.Code)
	}
	for _, auth := range []string{"", "Bearer wrong", "Basic perf-secret", "Bearer "} {
		rr := authed("/admin/perf", auth)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("auth %q = %d, want 401", auth, rr.Code)
		}
		if strings.Contains(rr.Body.String(), "GET /dashboard") {
			t.Errorf("auth %q leaked request paths", auth)
		}
	}
	if rr := newTestEnv(t, Options{Collector: c}).get("/admin/perf"); rr.Code != http.StatusNotFound {
		t.Errorf("no token configured = %d, want 404", rr.Code)
	}
	if rr := newTestEnv(t, Options{PerfToken: "perf-secret"}).get("/admin/perf"); rr.Code != http.StatusNotFound {
		t.Errorf("no collector = %d, want 404", rr.Code)
	}
}
