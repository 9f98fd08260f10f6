package projections

import (
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"

	domain "achievements/internal/domain/achievement"
)

// AllCategories is the selector that disables category filtering.
const AllCategories = "all"

// FilterAchievements returns the records matching selector and query.
// The selector is AllCategories, empty, or an exact category value. The query
// is a case-insensitive substring of Title or Description, taken verbatim
// including surrounding whitespace; empty matches all.
// PRE: none
// POST: Returns a new non-nil slice preserving list order; list is not modified
func FilterAchievements(list []domain.Achievement, selector, query string) []domain.Achievement {
	fold := cases.Fold()
	needle := fold.String(query)
	byCategory := selector != "" && selector != AllCategories

	return lo.Filter(list, func(a domain.Achievement, _ int) bool {
		if byCategory && string(a.Category) != selector {
			return false
		}
		if needle == "" {
			return true
		}
		return strings.Contains(fold.String(a.Title), needle) ||
			strings.Contains(fold.String(a.Description), needle)
	})
}

// CategoryBadge is one filter chip with its record count.
type CategoryBadge struct {
	Value string // AllCategories or a category value
	Label string
	Count int
}

// CategoryCounts returns the "all" badge followed by one badge per category in
// display order. Zero-count categories are kept so every filter stays reachable.
// PRE: none
// POST: len(result) == len(domain.Categories)+1; result[0].Count == len(list)
func CategoryCounts(list []domain.Achievement) []CategoryBadge {
	counts := lo.CountValuesBy(list, func(a domain.Achievement) domain.Category { return a.Category })
	badges := make([]CategoryBadge, 0, len(domain.Categories)+1)
	badges = append(badges, CategoryBadge{Value: AllCategories, Label: "All", Count: len(list)})
	for _, c := range domain.Categories {
		badges = append(badges, CategoryBadge{Value: string(c), Label: c.Label(), Count: counts[c]})
	}
	return badges
}
