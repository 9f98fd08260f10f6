package orchestrators

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	domain "achievements/internal/domain/event"
)

//go:embed seed/events.yaml
var defaultEventsYAML []byte

// EventStoreForSeed defines the store interface needed by SeedEvents.
type EventStoreForSeed interface {
	Save(ctx context.Context, e domain.Event) error
	ExistsByTitleDate(ctx context.Context, title, date string) (bool, error)
}

// SeedEventsDeps holds dependencies for SeedEvents.
type SeedEventsDeps struct {
	EventStore EventStoreForSeed
	GenerateID func() string
	Source     []byte // optional: YAML document; nil uses the embedded campus events
}

// EventSeedData is one entry of the events seed file.
type EventSeedData struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	Date         string `yaml:"date"`
	Time         string `yaml:"time"`
	Location     string `yaml:"location"`
	Category     string `yaml:"category"`
	Attendees    int    `yaml:"attendees"`
	MaxAttendees int    `yaml:"max_attendees"`
}

type eventSeedFile struct {
	Events []EventSeedData `yaml:"events"`
}

// ParseEventSeed decodes an events seed document, rejecting unknown fields.
// PRE: none
// POST: Returns the entries in file order
func ParseEventSeed(data []byte) ([]EventSeedData, error) {
	var f eventSeedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse event seed: %w", err)
	}
	return f.Events, nil
}

// ExecuteSeedEvents loads the campus events into the event store.
// It is idempotent: an entry whose title and date already exist is skipped.
// PRE: deps.EventStore and deps.GenerateID are non-nil
// POST: Returns the number of events inserted; invalid entries fail the whole seed
func ExecuteSeedEvents(ctx context.Context, deps SeedEventsDeps) (int, error) {
	source := deps.Source
	if source == nil {
		source = defaultEventsYAML
	}
	entries, err := ParseEventSeed(source)
	if err != nil {
		return 0, err
	}

	var seeded int
	for _, entry := range entries {
		exists, err := deps.EventStore.ExistsByTitleDate(ctx, entry.Title, entry.Date)
		if err != nil {
			return seeded, err
		}
		if exists {
			continue
		}

		e := domain.Event{
			ID:           deps.GenerateID(),
			Title:        entry.Title,
			Description:  entry.Description,
			Date:         entry.Date,
			Time:         entry.Time,
			Location:     entry.Location,
			Category:     entry.Category,
			Attendees:    entry.Attendees,
			MaxAttendees: entry.MaxAttendees,
		}
		if err := e.Validate(); err != nil {
			return seeded, fmt.Errorf("seed event %q: %w", entry.Title, err)
		}
		if err := deps.EventStore.Save(ctx, e); err != nil {
			return seeded, err
		}
		seeded++
	}

	if seeded > 0 {
		slog.Info("seed_event", "event", "campus_events_seeded", "count", seeded)
	}
	return seeded, nil
}
