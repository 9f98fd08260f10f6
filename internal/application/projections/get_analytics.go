package projections

import (
	"context"
	"fmt"
	"time"

	"achievements/internal/adapters/storage/achievement"
	domain "achievements/internal/domain/achievement"
)

// Chart colour presets.
var categoryColors = map[domain.Category]string{
	domain.CategoryConference:    "hsl(259 94% 51%)",
	domain.CategoryCertification: "hsl(217 91% 60%)",
	domain.CategoryClub:          "hsl(190 80% 42%)",
	domain.CategoryCompetition:   "hsl(142 71% 45%)",
	domain.CategoryLeadership:    "hsl(25 95% 53%)",
	domain.CategoryCommunity:     "hsl(300 76% 72%)",
	domain.CategoryInternship:    "hsl(50 98% 64%)",
}

var statusColors = map[domain.Status]string{
	domain.StatusApproved: "hsl(142 71% 45%)",
	domain.StatusPending:  "hsl(25 95% 53%)",
}

// MonthlyBarColor and TrendLineColor colour the monthly series charts.
const (
	MonthlyBarColor = "hsl(259 94% 51%)"
	TrendLineColor  = "hsl(25 95% 53%)"
)

// ChartSlice is one labelled, coloured value of a pie or bar chart.
type ChartSlice struct {
	Key     string
	Name    string
	Value   int
	Percent int // share of the chart total, rounded
	Color   string
}

// GetAnalyticsDeps holds dependencies for the analytics projection.
type GetAnalyticsDeps struct {
	AchievementStore AchievementStore
}

// AnalyticsResult carries the output of the analytics projection.
type AnalyticsResult struct {
	Summary         Summary
	Categories      []ChartSlice
	Statuses        []ChartSlice
	Monthly         []ChartSlice
	ShowStatusChart bool // more than one status present
}

// QueryGetAnalytics derives every chart from the full store contents.
// PRE: deps.AchievementStore is non-nil
// POST: Every slice is non-nil; zero-count entries are absent
func QueryGetAnalytics(ctx context.Context, deps GetAnalyticsDeps, now time.Time) (AnalyticsResult, error) {
	all, err := deps.AchievementStore.List(ctx, achievement.ListFilter{})
	if err != nil {
		return AnalyticsResult{}, fmt.Errorf("list achievements: %w", err)
	}

	categories := CategoryDistribution(all)
	catSlices := make([]ChartSlice, 0, len(categories))
	for _, c := range categories {
		catSlices = append(catSlices, ChartSlice{Key: string(c.Category), Name: c.Category.Label(), Value: c.Count, Color: categoryColors[c.Category]})
	}

	statuses := StatusDistribution(all)
	statusSlices := make([]ChartSlice, 0, len(statuses))
	for _, s := range statuses {
		statusSlices = append(statusSlices, ChartSlice{Key: string(s.Status), Name: s.Status.Label(), Value: s.Count, Color: statusColors[s.Status]})
	}

	months := MonthlySeries(all)
	monthSlices := make([]ChartSlice, 0, len(months))
	for _, m := range months {
		monthSlices = append(monthSlices, ChartSlice{Key: m.Month.Format("2006-01"), Name: m.Label, Value: m.Count, Color: MonthlyBarColor})
	}

	return AnalyticsResult{
		Summary:         SummaryStats(all, now),
		Categories:      withPercents(catSlices),
		Statuses:        withPercents(statusSlices),
		Monthly:         withPercents(monthSlices),
		ShowStatusChart: len(statusSlices) > 1,
	}, nil
}

func withPercents(slices []ChartSlice) []ChartSlice {
	total := 0
	for _, s := range slices {
		total += s.Value
	}
	if total == 0 {
		return slices
	}
	for i := range slices {
		slices[i].Percent = (slices[i].Value*100 + total/2) / total
	}
	return slices
}
