package projections

import (
	"context"
	"fmt"
	"time"

	"achievements/internal/adapters/storage/achievement"
	domain "achievements/internal/domain/achievement"
	domainEvent "achievements/internal/domain/event"
)

// DashboardEventLimit caps the events sidebar.
const DashboardEventLimit = 4

// GetDashboardQuery carries input for the dashboard projection.
type GetDashboardQuery struct {
	Category string // AllCategories, empty, or a category value
	Search   string
}

// GetDashboardDeps holds dependencies for the dashboard projection.
type GetDashboardDeps struct {
	AchievementStore AchievementStore
	EventStore       EventStore // optional: nil leaves the sidebar empty
}

// DashboardResult carries the output of the dashboard projection.
type DashboardResult struct {
	Achievements   []domain.Achievement // filtered, most-recent-first
	Summary        Summary              // over the full, unfiltered list
	CategoryBadges []CategoryBadge
	Selected       string
	Search         string
	Filtering      bool // true when a category or search narrows the list
	Events         []domainEvent.Event
}

// QueryGetDashboard builds the dashboard from the full store contents.
// PRE: deps.AchievementStore is non-nil
// POST: Summary and badges describe the full list; Achievements is the filtered view
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps, now time.Time) (DashboardResult, error) {
	all, err := deps.AchievementStore.List(ctx, achievement.ListFilter{})
	if err != nil {
		return DashboardResult{}, fmt.Errorf("list achievements: %w", err)
	}

	selected := query.Category
	if selected == "" {
		selected = AllCategories
	}

	result := DashboardResult{
		Achievements:   FilterAchievements(all, selected, query.Search),
		Summary:        SummaryStats(all, now),
		CategoryBadges: CategoryCounts(all),
		Selected:       selected,
		Search:         query.Search,
		Filtering:      selected != AllCategories || query.Search != "",
		Events:         []domainEvent.Event{},
	}

	if deps.EventStore != nil {
		events, err := QueryGetUpcomingEvents(ctx, GetUpcomingEventsQuery{Limit: DashboardEventLimit}, GetUpcomingEventsDeps{EventStore: deps.EventStore})
		if err != nil {
			return DashboardResult{}, err
		}
		result.Events = events
	}
	return result, nil
}
