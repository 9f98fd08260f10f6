package achievement

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used for Achievement.Date.
const DateLayout = "2006-01-02"

// Category is the closed classification tag on an Achievement.
type Category string

// Achievement categories, in display order.
const (
	CategoryConference    Category = "conference"
	CategoryCertification Category = "certification"
	CategoryClub          Category = "club"
	CategoryCompetition   Category = "competition"
	CategoryLeadership    Category = "leadership"
	CategoryCommunity     Category = "community"
	CategoryInternship    Category = "internship"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryConference,
	CategoryCertification,
	CategoryClub,
	CategoryCompetition,
	CategoryLeadership,
	CategoryCommunity,
	CategoryInternship,
}

var categoryLabels = map[Category]string{
	CategoryConference:    "Conferences & Workshops",
	CategoryCertification: "Certifications",
	CategoryClub:          "Club Activities & Volunteering",
	CategoryCompetition:   "Competitions & Contests",
	CategoryLeadership:    "Leadership",
	CategoryCommunity:     "Community Services",
	CategoryInternship:    "Internships",
}

// Label returns the human readable name of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// IsValid reports whether c is one of Categories.
func (c Category) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory converts raw text into a Category.
// PRE: none
// POST: Returns ErrInvalidCategory unless raw is an exact category value
func ParseCategory(raw string) (Category, error) {
	c := Category(raw)
	if !c.IsValid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// legacyCategories maps the earlier {conference, certificate, project, award}
// enumeration onto the canonical set.
var legacyCategories = map[string]Category{
	"conference":  CategoryConference,
	"certificate": CategoryCertification,
	"project":     CategoryClub,
	"award":       CategoryCompetition,
}

// MigrateLegacyCategory maps a stored category value onto the canonical set.
// Canonical values map to themselves.
// PRE: none
// POST: Returns (category, true) when raw is canonical or a known legacy value
func MigrateLegacyCategory(raw string) (Category, bool) {
	if c, err := ParseCategory(raw); err == nil {
		return c, true
	}
	c, ok := legacyCategories[raw]
	return c, ok
}

// Status is the approval state of an Achievement.
type Status string

// Achievement statuses
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ValidStatuses contains all valid statuses.
var ValidStatuses = []Status{StatusPending, StatusApproved, StatusRejected}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Label returns the capitalised status name.
func (s Status) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Domain errors
var (
	ErrInvalidCategory = errors.New("achievement category must be one of: conference, certification, club, competition, leadership, community, internship")
	ErrInvalidStatus   = errors.New("achievement status must be one of: pending, approved, rejected")
	ErrInvalidDate     = errors.New("achievement date must be a YYYY-MM-DD calendar date")
	ErrEmptyID         = errors.New("achievement ID cannot be empty")
)

// Achievement is a student-submitted record of an accomplishment.
// Everything but Status is fixed once created; Status changes only through
// an external approver.
type Achievement struct {
	ID           string
	Title        string
	Category     Category
	Description  string // Markdown content
	Date         string // YYYY-MM-DD occurrence date
	Organization string // optional
	ProofURL     string // optional
	Status       Status
	CreatedAt    time.Time
}

// Validate checks if the Achievement has valid data.
// PRE: Achievement struct is populated
// POST: Returns nil if valid, *ValidationError for missing or malformed fields,
// ErrEmptyID or ErrInvalidStatus otherwise
func (a *Achievement) Validate() error {
	var missing []string
	if strings.TrimSpace(a.Title) == "" {
		missing = append(missing, FieldTitle)
	}
	if a.Category == "" {
		missing = append(missing, FieldCategory)
	}
	if strings.TrimSpace(a.Description) == "" {
		missing = append(missing, FieldDescription)
	}
	if a.Date == "" {
		missing = append(missing, FieldDate)
	}
	if len(missing) > 0 {
		return &ValidationError{Kind: KindMissingInformation, Fields: missing}
	}

	var invalid []string
	var cause error
	if !a.Category.IsValid() {
		invalid = append(invalid, FieldCategory)
		cause = ErrInvalidCategory
	}
	if _, ok := a.OccurredOn(); !ok {
		invalid = append(invalid, FieldDate)
		if cause == nil {
			cause = ErrInvalidDate
		}
	}
	if len(invalid) > 0 {
		return &ValidationError{Kind: KindInvalidField, Fields: invalid, Err: cause}
	}

	if a.ID == "" {
		return ErrEmptyID
	}
	if !a.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

// OccurredOn parses Date.
// POST: Returns (date at UTC midnight, true), or (zero, false) when Date is malformed
func (a *Achievement) OccurredOn() (time.Time, bool) {
	t, err := time.Parse(DateLayout, a.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsPending returns true if the achievement awaits approval.
func (a *Achievement) IsPending() bool {
	return a.Status == StatusPending
}

// IsApproved returns true if the achievement has been approved.
func (a *Achievement) IsApproved() bool {
	return a.Status == StatusApproved
}
