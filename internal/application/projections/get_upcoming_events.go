package projections

import (
	"context"
	"fmt"

	"achievements/internal/adapters/storage/event"
	domain "achievements/internal/domain/event"
)

// GetUpcomingEventsQuery carries input for the upcoming events projection.
type GetUpcomingEventsQuery struct {
	From  string // optional YYYY-MM-DD lower bound; empty lists every event
	Limit int    // optional; 0 means no limit
}

// GetUpcomingEventsDeps holds dependencies for the upcoming events projection.
type GetUpcomingEventsDeps struct {
	EventStore EventStore
}

// QueryGetUpcomingEvents lists campus events by date ascending.
// PRE: deps.EventStore is non-nil
// POST: Returns a non-nil slice
func QueryGetUpcomingEvents(ctx context.Context, query GetUpcomingEventsQuery, deps GetUpcomingEventsDeps) ([]domain.Event, error) {
	events, err := deps.EventStore.List(ctx, event.ListFilter{From: query.From, Limit: query.Limit})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []domain.Event{}
	}
	return events, nil
}
