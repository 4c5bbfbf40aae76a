package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoSteps is returned when the schema has nothing to prompt for.
	ErrNoSteps = errors.New("tui: form has no steps")
)
