package projections

import (
	"sort"
	"time"

	"github.com/samber/lo"

	domain "achievements/internal/domain/achievement"
)

// MaxMonthlyBuckets bounds the trailing window of MonthlySeries.
const MaxMonthlyBuckets = 6

// MonthLabelLayout renders a bucket as e.g. "Mar 2024".
const MonthLabelLayout = "Jan 2006"

// CategoryCount is one slice of the category distribution.
type CategoryCount struct {
	Category domain.Category
	Count    int
}

// StatusCount is one slice of the status distribution.
type StatusCount struct {
	Status domain.Status
	Count  int
}

// MonthCount is one non-empty calendar month bucket.
type MonthCount struct {
	Month time.Time // first day of the month, UTC
	Label string
	Count int
}

// Summary holds the headline dashboard counters.
type Summary struct {
	Total           int
	Approved        int
	Pending         int
	CategoriesCount int // distinct categories present
	ThisMonthCount  int // records whose Date is in now's year and month
}

// CategoryDistribution counts records per category in display order.
// PRE: none
// POST: Returns a non-nil slice with no zero counts; unknown categories are not counted
func CategoryDistribution(list []domain.Achievement) []CategoryCount {
	counts := lo.CountValuesBy(list, func(a domain.Achievement) domain.Category { return a.Category })
	out := []CategoryCount{}
	for _, c := range domain.Categories {
		if n := counts[c]; n > 0 {
			out = append(out, CategoryCount{Category: c, Count: n})
		}
	}
	return out
}

// chartStatuses is the status order of the status chart. Rejected is never charted.
var chartStatuses = []domain.Status{domain.StatusApproved, domain.StatusPending}

// StatusDistribution counts approved then pending records.
// PRE: none
// POST: Returns a non-nil slice with no zero counts and no rejected entry
func StatusDistribution(list []domain.Achievement) []StatusCount {
	out := []StatusCount{}
	for _, s := range chartStatuses {
		n := lo.CountBy(list, func(a domain.Achievement) bool { return a.Status == s })
		if n > 0 {
			out = append(out, StatusCount{Status: s, Count: n})
		}
	}
	return out
}

// MonthlySeries buckets records by the calendar month of Date.
// Records with an unparseable Date are skipped. Empty months are never added.
// PRE: none
// POST: Returns at most MaxMonthlyBuckets entries, strictly ascending, each Count > 0
func MonthlySeries(list []domain.Achievement) []MonthCount {
	dated := lo.FilterMap(list, func(a domain.Achievement, _ int) (time.Time, bool) {
		d, ok := a.OccurredOn()
		if !ok {
			return time.Time{}, false
		}
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC), true
	})
	groups := lo.CountValues(dated)

	out := make([]MonthCount, 0, len(groups))
	for month, n := range groups {
		out = append(out, MonthCount{Month: month, Label: month.Format(MonthLabelLayout), Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })

	if len(out) > MaxMonthlyBuckets {
		out = out[len(out)-MaxMonthlyBuckets:]
	}
	return out
}

// SummaryStats computes the headline counters relative to now.
// PRE: none
// POST: Returns the zero Summary for an empty list
func SummaryStats(list []domain.Achievement, now time.Time) Summary {
	year, month, _ := now.Date()
	categories := lo.Uniq(lo.Map(list, func(a domain.Achievement, _ int) domain.Category { return a.Category }))
	thisMonth := lo.CountBy(list, func(a domain.Achievement) bool {
		d, ok := a.OccurredOn()
		if !ok {
			return false
		}
		y, m, _ := d.Date()
		return y == year && m == month
	})
	return Summary{
		Total:           len(list),
		Approved:        lo.CountBy(list, func(a domain.Achievement) bool { return a.IsApproved() }),
		Pending:         lo.CountBy(list, func(a domain.Achievement) bool { return a.IsPending() }),
		CategoriesCount: len(categories),
		ThisMonthCount:  thisMonth,
	}
}
