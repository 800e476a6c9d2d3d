package engine

import (
	"errors"
	"strings"
)

var (
	// ErrUnknownField is returned when an id does not name a leaf field.
	ErrUnknownField = errors.New("engine: unknown field")
	// ErrValidation is wrapped by ValidationError.
	ErrValidation = errors.New("engine: validation failed")
)

const (
	// RequiredMessage is the error shown for empty required fields.
	RequiredMessage = "This field is required"
	// LoadingMessage is the placeholder shown while options are fetched.
	LoadingMessage = "Loading options..."
)

// ValidationError lists the fields that blocked a submit, in tree order.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "engine: validation failed: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
