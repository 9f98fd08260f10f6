package projections

import (
	"context"
	"errors"
	"time"

	achievementStore "achievements/internal/adapters/storage/achievement"
	eventStore "achievements/internal/adapters/storage/event"
	domain "achievements/internal/domain/achievement"
	domainEvent "achievements/internal/domain/event"
)

var fixedNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

var errStoreDown = errors.New("store down")

type mockAchievementStore struct {
	list []domain.Achievement
	err  error
}

// List returns the seeded achievements.
func (m *mockAchievementStore) List(_ context.Context, _ achievementStore.ListFilter) ([]domain.Achievement, error) {
	return m.list, m.err
}

type mockEventStore struct {
	events []domainEvent.Event
	err    error
	last   eventStore.ListFilter
}

// List returns the seeded events, honouring Limit.
func (m *mockEventStore) List(_ context.Context, filter eventStore.ListFilter) ([]domainEvent.Event, error) {
	m.last = filter
	if m.err != nil {
		return nil, m.err
	}
	if filter.Limit > 0 && len(m.events) > filter.Limit {
		return m.events[:filter.Limit], nil
	}
	return m.events, nil
}

func ach(id string, c domain.Category, s domain.Status, date, title, desc string) domain.Achievement {
	return domain.Achievement{ID: id, Category: c, Status: s, Date: date, Title: title, Description: desc}
}

// sampleList is most-recent-first, as the store returns it.
func sampleList() []domain.Achievement {
	return []domain.Achievement{
		ach("a5", domain.CategoryLeadership, domain.StatusRejected, "2024-03-02", "Student council president", "Elected to lead the council"),
		ach("a4", domain.CategoryCommunity, domain.StatusPending, "2024-03-10", "Food bank volunteer", "Weekly shifts at the FOOD bank"),
		ach("a3", domain.CategoryConference, domain.StatusPending, "2024-01-10", "Student Management System", "Presented at the regional workshop"),
		ach("a2", domain.CategoryCertification, domain.StatusApproved, "2024-02-20", "React Developer Certification", "Advanced React patterns"),
		ach("a1", domain.CategoryConference, domain.StatusApproved, "2023-03-15", "Best Research Paper Award", "AI in Education"),
	}
}

func ids(list []domain.Achievement) []string {
	out := []string{}
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}
