package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers can switch on it instead of
// inspecting messages.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindService     Kind = "service"
	KindPersistence Kind = "persistence"
)

// EmptyResponse is the message used when the generation service returns
// an empty prompt.
const EmptyResponse = "empty response"

// Error is the tagged error carried across the orchestration boundary.
type Error struct {
	Kind        Kind
	Placeholder string // set for KindValidation when a placeholder is missing
	Message     string
	Err         error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindValidation && e.Placeholder != "":
		return fmt.Sprintf("missing value for placeholder %q", e.Placeholder)
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MissingPlaceholder reports a placeholder whose value is missing or blank.
func MissingPlaceholder(name string) *Error {
	return &Error{Kind: KindValidation, Placeholder: name}
}

// Validation reports a local precondition failure.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Service wraps a failure from the generation or simulation boundary.
func Service(msg string, err error) *Error {
	return &Error{Kind: KindService, Message: msg, Err: err}
}

// Persistence wraps a selection load/save failure.
func Persistence(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PlaceholderOf returns the missing placeholder name carried by err, if any.
func PlaceholderOf(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindValidation && e.Placeholder != "" {
		return e.Placeholder, true
	}
	return "", false
}
