package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoOptions is returned when a required choice field has nothing to
	// choose from, typically after a failed option fetch.
	ErrNoOptions = errors.New("tui: no options available")
)
