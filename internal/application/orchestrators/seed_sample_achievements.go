package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domain "achievements/internal/domain/achievement"
)

// AchievementStoreForSeed defines the store interface needed by SeedSampleAchievements.
type AchievementStoreForSeed interface {
	Insert(ctx context.Context, a domain.Achievement) error
	Count(ctx context.Context) (int, error)
}

// SeedSampleAchievementsDeps holds dependencies for SeedSampleAchievements.
type SeedSampleAchievementsDeps struct {
	Store      AchievementStoreForSeed
	GenerateID func() string
	Now        func() time.Time
}

// sampleAchievement is a demo record. Category holds the earlier category
// vocabulary and is mapped with MigrateLegacyCategory before insert.
type sampleAchievement struct {
	Title        string
	Category     string
	Description  string
	Date         string
	Organization string
	Status       domain.Status
}

// sampleAchievements is in display order, newest first.
var sampleAchievements = []sampleAchievement{
	{
		Title:        "Best Research Paper Award",
		Category:     "award",
		Description:  "Received best paper award for research on 'AI in Education' at the National Conference on Computer Science",
		Date:         "2024-03-15",
		Organization: "IEEE Computer Society",
		Status:       domain.StatusApproved,
	},
	{
		Title:        "React Developer Certification",
		Category:     "certificate",
		Description:  "Completed advanced React development course with hands-on projects and best practices",
		Date:         "2024-02-20",
		Organization: "Meta",
		Status:       domain.StatusApproved,
	},
	{
		Title:       "Student Management System",
		Category:    "project",
		Description: "Built a full-stack web application for managing student records using React and Node.js",
		Date:        "2024-01-10",
		Status:      domain.StatusPending,
	},
}

// ExecuteSeedSampleAchievements fills an empty store with the demo records.
// A store that already holds any achievement is left untouched.
// PRE: deps fields are non-nil
// POST: Returns the number of records inserted (0 or len(sampleAchievements))
func ExecuteSeedSampleAchievements(ctx context.Context, deps SeedSampleAchievementsDeps) (int, error) {
	n, err := deps.Store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	now := deps.Now().UTC()
	// Insert prepends, so walk oldest to newest.
	for i := len(sampleAchievements) - 1; i >= 0; i-- {
		s := sampleAchievements[i]
		category, ok := domain.MigrateLegacyCategory(s.Category)
		if !ok {
			return 0, fmt.Errorf("sample %q: %w", s.Title, domain.ErrInvalidCategory)
		}
		a := domain.Achievement{
			ID:           deps.GenerateID(),
			Title:        s.Title,
			Category:     category,
			Description:  s.Description,
			Date:         s.Date,
			Organization: s.Organization,
			Status:       s.Status,
			CreatedAt:    now,
		}
		if err := a.Validate(); err != nil {
			return 0, fmt.Errorf("sample %q: %w", s.Title, err)
		}
		if err := deps.Store.Insert(ctx, a); err != nil {
			return 0, err
		}
	}

	slog.Info("seed_event", "event", "sample_achievements_seeded", "count", len(sampleAchievements))
	return len(sampleAchievements), nil
}
