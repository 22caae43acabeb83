package task

import "fmt"

// ValidationError is the only error class mutators surface to callers.
// Lookup misses are deliberate no-ops, and persistence failures are handled
// inside the repository.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func validationErr(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}
