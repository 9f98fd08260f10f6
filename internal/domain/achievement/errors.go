package achievement

import (
	"fmt"
	"strings"
)

// Field names reported by ValidationError.
const (
	FieldTitle       = "title"
	FieldCategory    = "category"
	FieldDescription = "description"
	FieldDate        = "date"
	FieldProof       = "proof"
)

// ValidationErrorKind classifies a ValidationError.
type ValidationErrorKind string

const (
	KindMissingInformation ValidationErrorKind = "missing_information"
	KindInvalidField       ValidationErrorKind = "invalid_field"
)

// ValidationError is the user-facing, non-fatal rejection of a draft.
// The caller keeps the draft so the user can correct and resubmit.
type ValidationError struct {
	Kind   ValidationErrorKind
	Fields []string
	Detail string // optional extra explanation
	Err    error  // underlying domain error, if any
}

// Error implements error.
func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindMissingInformation:
		return "missing information: please fill in all required fields (" + strings.Join(e.Fields, ", ") + ")"
	default:
		msg := fmt.Sprintf("invalid %s", strings.Join(e.Fields, ", "))
		if e.Detail != "" {
			msg += ": " + e.Detail
		}
		return msg
	}
}

// Title returns the short heading shown in the dismissible notification.
func (e *ValidationError) Title() string {
	if e.Kind == KindMissingInformation {
		return "Missing Information"
	}
	return "Invalid Information"
}

// Message returns the notification body.
func (e *ValidationError) Message() string {
	if e.Kind == KindMissingInformation {
		return "Please fill in all required fields."
	}
	if e.Detail != "" {
		return e.Detail
	}
	return "Please check the highlighted fields."
}

// Unwrap returns the underlying domain error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// HasField reports whether field is one of the rejected fields.
func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}
