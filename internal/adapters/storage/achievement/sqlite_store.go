package achievement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"achievements/internal/adapters/storage"
	domain "achievements/internal/domain/achievement"
)

const timeLayout = time.RFC3339Nano

const achievementColumns = `id, title, category, description, date, organization, proof_url, status, created_at`

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

// Insert adds a record ahead of every existing one.
// PRE: a.Validate() returns nil
// POST: a is listed first; a duplicate ID returns an error and changes nothing
func (s *SQLiteStore) Insert(ctx context.Context, a domain.Achievement) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO achievement (`+achievementColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, string(a.Category), a.Description, a.Date,
		a.Organization, a.ProofURL, string(a.Status),
		a.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert achievement %s: %w", a.ID, err)
	}
	return nil
}

// GetByID retrieves an achievement by ID.
// PRE: id is non-empty
// POST: returns the achievement or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Achievement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+achievementColumns+` FROM achievement WHERE id = ?`, id)
	a, err := scanAchievement(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Achievement{}, ErrNotFound
	}
	return a, err
}

// List returns achievements most-recent-first.
// PRE: none
// POST: returns a non-nil slice in reverse insertion order
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Achievement, error) {
	var where []string
	var args []any
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + achievementColumns + ` FROM achievement`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	list := []domain.Achievement{}
	for rows.Next() {
		a, err := scanAchievement(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// Count returns the number of stored achievements.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM achievement`).Scan(&n)
	return n, err
}

// UpdateCategory rewrites the category of one record. Used only by the
// legacy category migration; it never changes ordering.
// PRE: c.IsValid()
// POST: returns ErrNotFound when no row has id
func (s *SQLiteStore) UpdateCategory(ctx context.Context, id string, c domain.Category) error {
	res, err := s.db.ExecContext(ctx, `UPDATE achievement SET category = ? WHERE id = ?`, string(c), id)
	if err != nil {
		return fmt.Errorf("update achievement category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAchievement(scan func(dest ...any) error) (domain.Achievement, error) {
	var a domain.Achievement
	var category, status, createdAt string
	if err := scan(&a.ID, &a.Title, &category, &a.Description, &a.Date,
		&a.Organization, &a.ProofURL, &status, &createdAt); err != nil {
		return domain.Achievement{}, err
	}
	a.Category = domain.Category(category)
	a.Status = domain.Status(status)
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		slog.Warn("achievement: failed to parse time", "field", "created_at", "achievement_id", a.ID, "raw", createdAt, "error", err)
	}
	a.CreatedAt = t
	return a, nil
}
