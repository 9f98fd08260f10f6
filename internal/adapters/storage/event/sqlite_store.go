package event

import (
	"context"
	"fmt"

	"achievements/internal/adapters/storage"
	domain "achievements/internal/domain/event"
)

const eventColumns = `id, title, description, date, time, location, category, attendees, max_attendees`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
// PRE: db is a valid, open database connection with migrations applied
// POST: store is ready for use
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save inserts or updates an event.
// PRE: e.Validate() returns nil
// POST: event is persisted
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event (`+eventColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title=excluded.title, description=excluded.description, date=excluded.date,
		   time=excluded.time, location=excluded.location, category=excluded.category,
		   attendees=excluded.attendees, max_attendees=excluded.max_attendees`,
		e.ID, e.Title, e.Description, e.Date, e.Time, e.Location, e.Category,
		e.Attendees, e.MaxAttendees,
	)
	if err != nil {
		return fmt.Errorf("save event %s: %w", e.ID, err)
	}
	return nil
}

// ExistsByTitleDate reports whether an event with this title already runs on date.
func (s *SQLiteStore) ExistsByTitleDate(ctx context.Context, title, date string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event WHERE title = ? AND date = ?`, title, date).Scan(&n)
	return n > 0, err
}

// List returns events ordered by date ascending, then title.
// PRE: filter.From is empty or YYYY-MM-DD
// POST: returns a non-nil slice
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM event WHERE date >= ? ORDER BY date ASC, title ASC`
	args := []any{filter.From}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Time,
			&e.Location, &e.Category, &e.Attendees, &e.MaxAttendees); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
