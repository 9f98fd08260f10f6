package event

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the layout of Event.Date.
const DateLayout = "2006-01-02"

// Max length constants.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxLocationLength    = 200
)

// Domain errors
var (
	ErrEmptyTitle              = errors.New("event title cannot be empty")
	ErrTitleTooLong            = errors.New("event title cannot exceed 200 characters")
	ErrDescriptionTooLong      = errors.New("event description cannot exceed 2000 characters")
	ErrLocationTooLong         = errors.New("event location cannot exceed 200 characters")
	ErrInvalidDate             = errors.New("event date must be a YYYY-MM-DD calendar date")
	ErrNegativeAttendees       = errors.New("event attendees cannot be negative")
	ErrAttendeesExceedCapacity = errors.New("event attendees cannot exceed max attendees")
)

// Event is a read-only upcoming campus event.
// INVARIANT: 0 <= Attendees <= MaxAttendees.
type Event struct {
	ID           string
	Title        string
	Description  string
	Date         string // YYYY-MM-DD
	Time         string // display text, e.g. "09:00 AM"
	Location     string
	Category     string // free text, e.g. "Workshop"
	Attendees    int
	MaxAttendees int
}

// Validate checks the event's invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if len(e.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(e.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if len(e.Location) > MaxLocationLength {
		return ErrLocationTooLong
	}
	if _, ok := e.On(); !ok {
		return ErrInvalidDate
	}
	if e.Attendees < 0 {
		return ErrNegativeAttendees
	}
	if e.Attendees > e.MaxAttendees {
		return ErrAttendeesExceedCapacity
	}
	return nil
}

// On parses Date.
func (e *Event) On() (time.Time, bool) {
	t, err := time.Parse(DateLayout, e.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SpotsLeft returns the remaining capacity.
func (e *Event) SpotsLeft() int {
	if left := e.MaxAttendees - e.Attendees; left > 0 {
		return left
	}
	return 0
}

// FillPercent returns registered attendees as a whole percentage of capacity.
// POST: result is in [0, 100]
func (e *Event) FillPercent() int {
	if e.MaxAttendees <= 0 {
		return 0
	}
	pct := e.Attendees * 100 / e.MaxAttendees
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// CategoryTone maps the free-text category onto a badge colour class suffix.
func (e *Event) CategoryTone() string {
	switch strings.ToLower(e.Category) {
	case "conference":
		return "primary"
	case "workshop":
		return "info"
	case "career":
		return "success"
	case "competition":
		return "accent"
	default:
		return "secondary"
	}
}
