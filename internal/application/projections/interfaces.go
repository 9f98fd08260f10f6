package projections

import (
	"context"

	achievementStore "achievements/internal/adapters/storage/achievement"
	eventStore "achievements/internal/adapters/storage/event"
	domainAchievement "achievements/internal/domain/achievement"
	domainEvent "achievements/internal/domain/event"
)

// AchievementStore interface for achievement queries.
type AchievementStore interface {
	List(ctx context.Context, filter achievementStore.ListFilter) ([]domainAchievement.Achievement, error)
}

// EventStore interface for event queries.
type EventStore interface {
	List(ctx context.Context, filter eventStore.ListFilter) ([]domainEvent.Event, error)
}
