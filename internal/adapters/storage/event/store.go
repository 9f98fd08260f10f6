package event

import (
	"context"

	domain "achievements/internal/domain/event"
)

// Store persists the read-only campus event list.
type Store interface {
	Save(ctx context.Context, e domain.Event) error
	ExistsByTitleDate(ctx context.Context, title, date string) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Event, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	From  string // inclusive YYYY-MM-DD lower bound; empty means no bound
	Limit int
}
