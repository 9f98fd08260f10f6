package projections

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	domainEvent "achievements/internal/domain/event"
)

// TestQueryGetDashboard_FiltersListButNotSummary verifies counters ignore the active filter.
func TestQueryGetDashboard_FiltersListButNotSummary(t *testing.T) {
	deps := GetDashboardDeps{AchievementStore: &mockAchievementStore{list: sampleList()}}

	result, err := QueryGetDashboard(context.Background(), GetDashboardQuery{Category: "conference", Search: "award"}, deps, fixedNow)
	if err != nil {
		t.Fatalf("QueryGetDashboard: %v", err)
	}
	if diff := cmp.Diff([]string{"a1"}, ids(result.Achievements)); diff != "" {
		t.Errorf("achievements mismatch (-want +got):\n%s", diff)
	}
	if result.Summary.Total != 5 {
		t.Errorf("Summary.Total = %d, want 5", result.Summary.Total)
	}
	if result.CategoryBadges[0].Count != 5 {
		t.Errorf("all badge = %d, want 5", result.CategoryBadges[0].Count)
	}
	if !result.Filtering || result.Selected != "conference" || result.Search != "award" {
		t.Errorf("unexpected query echo: %+v", result)
	}
	if result.Events == nil {
		t.Error("Events should be non-nil without an event store")
	}
}

// TestQueryGetDashboard_DefaultsToAll verifies an empty selector means every category.
func TestQueryGetDashboard_DefaultsToAll(t *testing.T) {
	deps := GetDashboardDeps{AchievementStore: &mockAchievementStore{list: sampleList()}}

	result, err := QueryGetDashboard(context.Background(), GetDashboardQuery{}, deps, fixedNow)
	if err != nil {
		t.Fatalf("QueryGetDashboard: %v", err)
	}
	if result.Selected != AllCategories || result.Filtering {
		t.Errorf("Selected = %q Filtering = %v", result.Selected, result.Filtering)
	}
	if len(result.Achievements) != 5 {
		t.Errorf("len = %d, want 5", len(result.Achievements))
	}
}

// TestQueryGetDashboard_EventsSidebar verifies the sidebar is capped.
func TestQueryGetDashboard_EventsSidebar(t *testing.T) {
	events := &mockEventStore{}
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		events.events = append(events.events, domainEvent.Event{ID: title, Title: title, Date: "2024-04-15"})
	}
	deps := GetDashboardDeps{AchievementStore: &mockAchievementStore{}, EventStore: events}

	result, err := QueryGetDashboard(context.Background(), GetDashboardQuery{}, deps, fixedNow)
	if err != nil {
		t.Fatalf("QueryGetDashboard: %v", err)
	}
	if len(result.Events) != DashboardEventLimit {
		t.Errorf("len(Events) = %d, want %d", len(result.Events), DashboardEventLimit)
	}
	if events.last.Limit != DashboardEventLimit {
		t.Errorf("Limit = %d", events.last.Limit)
	}
	if result.Achievements == nil || len(result.Achievements) != 0 {
		t.Errorf("Achievements = %#v, want empty", result.Achievements)
	}
}

// TestQueryGetDashboard_StoreErrors verifies store failures propagate.
func TestQueryGetDashboard_StoreErrors(t *testing.T) {
	_, err := QueryGetDashboard(context.Background(), GetDashboardQuery{},
		GetDashboardDeps{AchievementStore: &mockAchievementStore{err: errStoreDown}}, fixedNow)
	if !errors.Is(err, errStoreDown) {
		t.Errorf("expected errStoreDown, got %v", err)
	}

	_, err = QueryGetDashboard(context.Background(), GetDashboardQuery{},
		GetDashboardDeps{AchievementStore: &mockAchievementStore{}, EventStore: &mockEventStore{err: errStoreDown}}, fixedNow)
	if !errors.Is(err, errStoreDown) {
		t.Errorf("expected errStoreDown from events, got %v", err)
	}
}

// TestQueryGetUpcomingEvents verifies the filter is passed through and nil becomes empty.
func TestQueryGetUpcomingEvents(t *testing.T) {
	store := &mockEventStore{}
	got, err := QueryGetUpcomingEvents(context.Background(), GetUpcomingEventsQuery{From: "2024-04-01"}, GetUpcomingEventsDeps{EventStore: store})
	if err != nil {
		t.Fatalf("QueryGetUpcomingEvents: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil", got)
	}
	if store.last.From != "2024-04-01" {
		t.Errorf("From = %q", store.last.From)
	}
}
