package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	achievementStore "achievements/internal/adapters/storage/achievement"
	"achievements/internal/application/orchestrators"
	"achievements/internal/application/projections"
	domain "achievements/internal/domain/achievement"
	domainEvent "achievements/internal/domain/event"
)

// achievementJSON is the wire form of an achievement.
type achievementJSON struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	CategoryLabel string    `json:"category_label"`
	Description   string    `json:"description"`
	Date          string    `json:"date"`
	Organization  string    `json:"organization,omitempty"`
	ProofURL      string    `json:"proof_url,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAchievementJSON(a domain.Achievement) achievementJSON {
	return achievementJSON{
		ID:            a.ID,
		Title:         a.Title,
		Category:      string(a.Category),
		CategoryLabel: a.Category.Label(),
		Description:   a.Description,
		Date:          a.Date,
		Organization:  a.Organization,
		ProofURL:      a.ProofURL,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
	}
}

type eventJSON struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Location     string `json:"location"`
	Category     string `json:"category"`
	Attendees    int    `json:"attendees"`
	MaxAttendees int    `json:"max_attendees"`
	SpotsLeft    int    `json:"spots_left"`
}

type summaryJSON struct {
	Total      int `json:"total"`
	Approved   int `json:"approved"`
	Pending    int `json:"pending"`
	Categories int `json:"categories"`
	ThisMonth  int `json:"this_month"`
}

type sliceJSON struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Value   int    `json:"value"`
	Percent int    `json:"percent"`
	Color   string `json:"color"`
}

type statsJSON struct {
	Summary    summaryJSON `json:"summary"`
	Categories []sliceJSON `json:"categories"`
	Statuses   []sliceJSON `json:"statuses"`
	Monthly    []sliceJSON `json:"monthly"`
}

// submitRequest is the JSON body of POST /api/achievements.
type submitRequest struct {
	Title        string `json:"title"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Date         string `json:"date"`
	Organization string `json:"organization"`
}

// validationErrorJSON is the 422 body for a rejected draft.
type validationErrorJSON struct {
	Error  string   `json:"error"`
	Title  string   `json:"title"`
	Kind   string   `json:"kind"`
	Fields []string `json:"fields"`
}

// handleAPIAchievements handles GET (filtered list) and POST (submit) for /api/achievements
func handleAPIAchievements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		listAchievementsJSON(w, r)
	case http.MethodPost:
		submitAchievementJSON(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func listAchievementsJSON(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	if category != "" && category != projections.AllCategories {
		if _, err := domain.ParseCategory(category); err != nil {
			http.Error(w, "unknown category", http.StatusBadRequest)
			return
		}
	}

	all, err := stores.AchievementStore.List(r.Context(), achievementStore.ListFilter{})
	if err != nil {
		internalError(w, err)
		return
	}
	filtered := projections.FilterAchievements(all, category, q.Get("q"))
	writeJSON(w, http.StatusOK, lo.Map(filtered, func(a domain.Achievement, _ int) achievementJSON {
		return toAchievementJSON(a)
	}))
}

func submitAchievementJSON(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	var req submitRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	input := orchestrators.SubmitAchievementInput{
		Title:        req.Title,
		Category:     req.Category,
		Description:  req.Description,
		Date:         req.Date,
		Organization: req.Organization,
	}
	a, err := orchestrators.ExecuteSubmitAchievement(r.Context(), input, submitDeps())
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, validationErrorJSON{
			Error:  verr.Message(),
			Title:  verr.Title(),
			Kind:   string(verr.Kind),
			Fields: verr.Fields,
		})
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAchievementJSON(a))
}

// handleAPIStats handles GET /api/stats
func handleAPIStats(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetAnalytics(r.Context(), projections.GetAnalyticsDeps{
		AchievementStore: stores.AchievementStore,
	}, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}

	s := result.Summary
	writeJSON(w, http.StatusOK, statsJSON{
		Summary: summaryJSON{
			Total:      s.Total,
			Approved:   s.Approved,
			Pending:    s.Pending,
			Categories: s.CategoriesCount,
			ThisMonth:  s.ThisMonthCount,
		},
		Categories: toSlicesJSON(result.Categories),
		Statuses:   toSlicesJSON(result.Statuses),
		Monthly:    toSlicesJSON(result.Monthly),
	})
}

func toSlicesJSON(slices []projections.ChartSlice) []sliceJSON {
	return lo.Map(slices, func(s projections.ChartSlice, _ int) sliceJSON {
		return sliceJSON{Key: s.Key, Name: s.Name, Value: s.Value, Percent: s.Percent, Color: s.Color}
	})
}

// handleAPIEvents handles GET /api/events?from=&limit=
func handleAPIEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := projections.GetUpcomingEventsQuery{From: q.Get("from")}
	if query.From != "" && !validDate(query.From) {
		http.Error(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		query.Limit = n
	}
	if stores.EventStore == nil {
		writeJSON(w, http.StatusOK, []eventJSON{})
		return
	}

	events, err := projections.QueryGetUpcomingEvents(r.Context(), query, projections.GetUpcomingEventsDeps{EventStore: stores.EventStore})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(events, func(e domainEvent.Event, _ int) eventJSON {
		return eventJSON{
			ID:           e.ID,
			Title:        e.Title,
			Description:  e.Description,
			Date:         e.Date,
			Time:         e.Time,
			Location:     e.Location,
			Category:     e.Category,
			Attendees:    e.Attendees,
			MaxAttendees: e.MaxAttendees,
			SpotsLeft:    e.SpotsLeft(),
		}
	}))
}

// handleUpload handles GET /uploads/{name}
func handleUpload(w http.ResponseWriter, r *http.Request) {
	if proofs == nil {
		http.NotFound(w, r)
		return
	}
	path, err := proofs.Path(r.PathValue("name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

// handleAdminPerf handles GET /admin/perf?window=1h
// NewMux mounts it behind middleware.RequireBearer only when a token is configured.
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		http.NotFound(w, r)
		return
	}
	window := time.Hour
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			http.Error(w, "window must be a positive duration", http.StatusBadRequest)
			return
		}
		window = d
	}
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(timeNow().Add(-window), 10))
}
