// Package pipelineerr defines the typed error kinds from spec §7. Components
// never panic across their boundary; they catch and return a neutral default
// with the error recorded, and Pipeline.Resolve recovers any stray panic at
// the top as InternalError so a single bad address never crashes a batch.
package pipelineerr

import "fmt"

// Kind enumerates the error categories from spec §7.
type Kind string

const (
	InvalidInput         Kind = "InvalidInput"
	ReferenceUnavailable Kind = "ReferenceUnavailable"
	MalformedReference   Kind = "MalformedReference"
	GeographicConflict   Kind = "GeographicConflict"
	LowConfidence        Kind = "LowConfidence"
	InternalError        Kind = "InternalError"
)

// Error is the typed error every component boundary returns instead of a
// bare error string, so callers can branch on Kind without parsing messages.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an *Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error carrying cause as its Unwrap target.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}
