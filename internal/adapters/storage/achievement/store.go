package achievement

import (
	"context"
	"errors"

	domain "achievements/internal/domain/achievement"
)

// ErrNotFound is returned when no achievement has the requested ID.
var ErrNotFound = errors.New("achievement not found")

// Store persists Achievement records. Insert is the only user-facing mutation.
type Store interface {
	Insert(ctx context.Context, a domain.Achievement) error
	GetByID(ctx context.Context, id string) (domain.Achievement, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Achievement, error)
	Count(ctx context.Context) (int, error)
	UpdateCategory(ctx context.Context, id string, c domain.Category) error
}

// ListFilter carries filtering parameters for List operations.
// Zero values mean no restriction.
type ListFilter struct {
	Limit    int
	Category domain.Category
	Status   domain.Status
}
