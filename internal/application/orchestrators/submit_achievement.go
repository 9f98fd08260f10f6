package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	domain "achievements/internal/domain/achievement"
)

// Draft length limits, mirrored by the validate tags below.
const (
	MaxTitleLength        = 200
	MaxOrganizationLength = 200
	MaxDescriptionLength  = 5000
)

// AchievementInserter is the store surface the submission needs.
type AchievementInserter interface {
	Insert(ctx context.Context, a domain.Achievement) error
}

// ProofResolver turns an uploaded proof file into a referenceable URL.
// Implementations return *domain.ValidationError for a rejected file.
// created reports whether Resolve wrote new content rather than reusing a stored file.
type ProofResolver interface {
	Resolve(ctx context.Context, filename string, size int64, content io.Reader) (url string, created bool, err error)
	Discard(url string) error
}

// SubmissionNotifier announces a new pending achievement.
type SubmissionNotifier interface {
	NotifySubmitted(ctx context.Context, a domain.Achievement) error
}

// ProofUpload is an attached proof file.
type ProofUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// SubmitAchievementInput carries the user's draft.
type SubmitAchievementInput struct {
	Title        string       `validate:"required,max=200" field:"title"`
	Category     string       `validate:"required,achievement_category" field:"category"`
	Description  string       `validate:"required,max=5000" field:"description"`
	Date         string       `validate:"required,datetime=2006-01-02" field:"date"`
	Organization string       `validate:"max=200" field:"organization"`
	Proof        *ProofUpload `validate:"-"`
}

// SubmitAchievementDeps holds dependencies for SubmitAchievement.
type SubmitAchievementDeps struct {
	Store         AchievementInserter
	ProofResolver ProofResolver      // optional: nil rejects any attached proof
	Notifier      SubmissionNotifier // optional
	GenerateID    func() string
	Now           func() time.Time
}

var draftValidator = newDraftValidator()

func newDraftValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("field")
	})
	v.RegisterValidation("achievement_category", func(fl validator.FieldLevel) bool {
		return domain.Category(fl.Field().String()).IsValid()
	})
	return v
}

// ExecuteSubmitAchievement validates a draft and inserts it as a pending achievement.
// PRE: deps.Store, deps.GenerateID and deps.Now are non-nil
// POST: On success the new record is first in the store with Status pending.
// On *domain.ValidationError or any other error the store is unchanged, and a
// proof file written for this submission is discarded.
func ExecuteSubmitAchievement(ctx context.Context, input SubmitAchievementInput, deps SubmitAchievementDeps) (domain.Achievement, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Category = strings.TrimSpace(input.Category)
	input.Description = strings.TrimSpace(input.Description)
	input.Date = strings.TrimSpace(input.Date)
	input.Organization = strings.TrimSpace(input.Organization)

	if err := validateDraft(input); err != nil {
		return domain.Achievement{}, err
	}

	a := domain.Achievement{
		ID:           deps.GenerateID(),
		Title:        input.Title,
		Category:     domain.Category(input.Category),
		Description:  input.Description,
		Date:         input.Date,
		Organization: input.Organization,
		Status:       domain.StatusPending,
		CreatedAt:    deps.Now().UTC(),
	}
	if err := a.Validate(); err != nil {
		return domain.Achievement{}, err
	}

	var freshProof bool
	if input.Proof != nil {
		if deps.ProofResolver == nil {
			return domain.Achievement{}, &domain.ValidationError{
				Kind:   domain.KindInvalidField,
				Fields: []string{domain.FieldProof},
				Detail: "Proof uploads are not enabled.",
			}
		}
		url, created, err := deps.ProofResolver.Resolve(ctx, input.Proof.Filename, input.Proof.Size, input.Proof.Content)
		if err != nil {
			return domain.Achievement{}, fmt.Errorf("resolve proof: %w", err)
		}
		a.ProofURL = url
		freshProof = created
	}

	if err := deps.Store.Insert(ctx, a); err != nil {
		if freshProof {
			if derr := deps.ProofResolver.Discard(a.ProofURL); derr != nil {
				slog.Error("proof_discard_failed", "proof_url", a.ProofURL, "error", derr)
			}
		}
		return domain.Achievement{}, fmt.Errorf("insert achievement: %w", err)
	}

	if deps.Notifier != nil {
		if err := deps.Notifier.NotifySubmitted(ctx, a); err != nil {
			slog.Error("achievement_notify_failed", "achievement_id", a.ID, "error", err)
		}
	}

	slog.Info("achievement_event",
		"event", "achievement_submitted",
		"achievement_id", a.ID,
		"category", string(a.Category),
		"has_proof", a.ProofURL != "",
	)
	return a, nil
}

// validateDraft maps validator failures onto a *domain.ValidationError.
// Any missing required field takes precedence over malformed ones.
func validateDraft(input SubmitAchievementInput) error {
	err := draftValidator.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate draft: %w", err)
	}

	var missing, invalid []string
	var details []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid = append(invalid, fe.Field())
		details = append(details, describeFieldError(fe))
	}
	if len(missing) > 0 {
		return &domain.ValidationError{Kind: domain.KindMissingInformation, Fields: missing}
	}

	verr := &domain.ValidationError{
		Kind:   domain.KindInvalidField,
		Fields: invalid,
		Detail: strings.Join(details, " "),
	}
	switch invalid[0] {
	case domain.FieldCategory:
		verr.Err = domain.ErrInvalidCategory
	case domain.FieldDate:
		verr.Err = domain.ErrInvalidDate
	}
	return verr
}

func describeFieldError(fe validator.FieldError) string {
	name := strings.ToUpper(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", name, fe.Param())
	case "datetime":
		return "Date must be a calendar date (YYYY-MM-DD)."
	case "achievement_category":
		return "Category must be one of the listed categories."
	default:
		return name + " is not valid."
	}
}
