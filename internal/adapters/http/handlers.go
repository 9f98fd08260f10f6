package web

import (
	"errors"
	"net/http"
	"time"

	"achievements/internal/application/orchestrators"
	"achievements/internal/application/projections"
	domain "achievements/internal/domain/achievement"
	domainEvent "achievements/internal/domain/event"
)

// maxFormBytes bounds the non-file part of a submission.
const maxFormBytes = 1 << 20

// multipartMemory is how much of a multipart body is held in memory before spilling to disk.
const multipartMemory = 4 << 20

// SubmittedMessage is the banner shown after a successful submission.
const SubmittedMessage = "Your achievement has been submitted for approval."

// draft is the form state echoed back after a rejected submission.
type draft struct {
	Title        string
	Category     string
	Description  string
	Date         string
	Organization string
}

type dashboardPage struct {
	projections.DashboardResult
	Banner     string // set after a successful submission
	Categories []domain.Category
}

type achievementFormPage struct {
	Draft        draft
	Error        *domain.ValidationError
	Categories   []domain.Category
	ProofEnabled bool
	MaxProof     int64
}

type analyticsPage struct {
	projections.AnalyticsResult
	CategoryPie []pieSlice
	StatusPie   []pieSlice
	MonthlyBars []bar
	Trend       string
	TrendColor  string
	ChartWidth  float64
	ChartHeight float64
}

type eventsPage struct {
	Events []domainEvent.Event
	From   string
}

// handleRoot handles GET /
func handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleDashboard handles GET /dashboard
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	category := q.Get("category")
	if _, err := domain.ParseCategory(category); err != nil {
		category = projections.AllCategories
	}
	query := projections.GetDashboardQuery{Category: category, Search: q.Get("q")}
	deps := projections.GetDashboardDeps{
		AchievementStore: stores.AchievementStore,
		EventStore:       stores.EventStore,
	}

	result, err := projections.QueryGetDashboard(ctx, query, deps, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}

	page := dashboardPage{DashboardResult: result, Categories: domain.Categories}
	if q.Get("submitted") == "1" {
		page.Banner = SubmittedMessage
	}
	renderTemplate(w, r, http.StatusOK, "dashboard.html", page)
}

// handleNewAchievementForm handles GET /achievements/new
func handleNewAchievementForm(w http.ResponseWriter, r *http.Request) {
	renderAchievementForm(w, r, http.StatusOK, draft{}, nil)
}

func renderAchievementForm(w http.ResponseWriter, r *http.Request, status int, d draft, verr *domain.ValidationError) {
	page := achievementFormPage{
		Draft:        d,
		Error:        verr,
		Categories:   domain.Categories,
		ProofEnabled: proofs != nil,
	}
	if proofs != nil {
		page.MaxProof = proofs.MaxBytes()
	}
	renderTemplate(w, r, status, "add_achievement.html", page)
}

// handlePostAchievement handles POST /achievements (multipart or urlencoded form).
// A rejected draft re-renders the form with its values; success redirects to the dashboard.
// The body is capped by middleware.LimitBody at submissionLimit.
func handlePostAchievement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := parseSubmission(r); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			renderAchievementForm(w, r, http.StatusUnprocessableEntity, draft{}, &domain.ValidationError{
				Kind:   domain.KindInvalidField,
				Fields: []string{domain.FieldProof},
				Detail: "The upload is too large.",
			})
			return
		}
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	d := draft{
		Title:        r.PostFormValue("title"),
		Category:     r.PostFormValue("category"),
		Description:  r.PostFormValue("description"),
		Date:         r.PostFormValue("date"),
		Organization: r.PostFormValue("organization"),
	}
	input := orchestrators.SubmitAchievementInput{
		Title:        d.Title,
		Category:     d.Category,
		Description:  d.Description,
		Date:         d.Date,
		Organization: d.Organization,
	}

	file, header, err := r.FormFile("proof")
	switch {
	case err == nil:
		defer file.Close()
		input.Proof = &orchestrators.ProofUpload{Filename: header.Filename, Size: header.Size, Content: file}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	_, err = orchestrators.ExecuteSubmitAchievement(ctx, input, submitDeps())
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		renderAchievementForm(w, r, http.StatusUnprocessableEntity, d, verr)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}

	http.Redirect(w, r, "/dashboard?submitted=1", http.StatusSeeOther)
}

// parseSubmission parses either form encoding. ParseForm runs first since
// ParseMultipartForm drops its error for urlencoded bodies.
func parseSubmission(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

// submissionLimit is the largest form body accepted, proof included.
func submissionLimit() int64 {
	limit := int64(maxFormBytes)
	if proofs != nil {
		limit += proofs.MaxBytes()
	}
	return limit
}

func submitDeps() orchestrators.SubmitAchievementDeps {
	deps := orchestrators.SubmitAchievementDeps{
		Store:      stores.AchievementStore,
		Notifier:   notifier,
		GenerateID: generateID,
		Now:        timeNow,
	}
	if proofs != nil {
		deps.ProofResolver = proofs
	}
	return deps
}

// handleAnalytics handles GET /analytics
func handleAnalytics(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetAnalytics(r.Context(), projections.GetAnalyticsDeps{
		AchievementStore: stores.AchievementStore,
	}, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}

	bars := barChart(result.Monthly)
	renderTemplate(w, r, http.StatusOK, "analytics.html", analyticsPage{
		AnalyticsResult: result,
		CategoryPie:     pieChart(result.Categories),
		StatusPie:       pieChart(result.Statuses),
		MonthlyBars:     bars,
		Trend:           trendPoints(bars),
		TrendColor:      projections.TrendLineColor,
		ChartWidth:      barWidth,
		ChartHeight:     barHeight,
	})
}

// handleEvents handles GET /events
func handleEvents(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	if from != "" && !validDate(from) {
		http.Error(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if stores.EventStore == nil {
		renderTemplate(w, r, http.StatusOK, "events.html", eventsPage{Events: []domainEvent.Event{}, From: from})
		return
	}

	events, err := projections.QueryGetUpcomingEvents(r.Context(), projections.GetUpcomingEventsQuery{From: from},
		projections.GetUpcomingEventsDeps{EventStore: stores.EventStore})
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "events.html", eventsPage{Events: events, From: from})
}

func validDate(s string) bool {
	_, err := time.Parse(domain.DateLayout, s)
	return err == nil
}
