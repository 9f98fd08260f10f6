package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	achievementStore "achievements/internal/adapters/storage/achievement"
	domain "achievements/internal/domain/achievement"
)

// AchievementStoreForMigration defines the store interface needed by MigrateLegacyCategories.
type AchievementStoreForMigration interface {
	List(ctx context.Context, filter achievementStore.ListFilter) ([]domain.Achievement, error)
	UpdateCategory(ctx context.Context, id string, c domain.Category) error
}

// MigrateLegacyCategoriesDeps holds dependencies for MigrateLegacyCategories.
type MigrateLegacyCategoriesDeps struct {
	Store AchievementStoreForMigration
}

// MigrateLegacyCategoriesResult reports what the migration touched.
type MigrateLegacyCategoriesResult struct {
	Migrated int
	Unknown  []string // IDs whose category maps to nothing; left unchanged
}

// ExecuteMigrateLegacyCategories rewrites stored categories from the earlier
// {conference, certificate, project, award} vocabulary onto the canonical set.
// PRE: deps.Store is non-nil
// POST: every record with a known legacy category holds its canonical category;
// running it again migrates nothing
func ExecuteMigrateLegacyCategories(ctx context.Context, deps MigrateLegacyCategoriesDeps) (MigrateLegacyCategoriesResult, error) {
	var result MigrateLegacyCategoriesResult

	all, err := deps.Store.List(ctx, achievementStore.ListFilter{})
	if err != nil {
		return result, fmt.Errorf("list achievements: %w", err)
	}

	for _, a := range all {
		if a.Category.IsValid() {
			continue
		}
		canonical, ok := domain.MigrateLegacyCategory(string(a.Category))
		if !ok {
			slog.Warn("achievement_event", "event", "unknown_category", "achievement_id", a.ID, "category", string(a.Category))
			result.Unknown = append(result.Unknown, a.ID)
			continue
		}
		if err := deps.Store.UpdateCategory(ctx, a.ID, canonical); err != nil {
			return result, fmt.Errorf("migrate achievement %s: %w", a.ID, err)
		}
		result.Migrated++
	}

	if result.Migrated > 0 {
		slog.Info("achievement_event", "event", "legacy_categories_migrated", "count", result.Migrated)
	}
	return result, nil
}
