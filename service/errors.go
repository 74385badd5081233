package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the service boundary
var (
	// ErrDatasetNotFound is returned when a local dataset path cannot be
	// resolved. It is distinct from transport errors so callers can give an
	// actionable "file not found" message.
	ErrDatasetNotFound = errors.New("dataset file not found")

	// ErrFetchFailed is returned when a network dataset fetch fails.
	ErrFetchFailed = errors.New("dataset fetch failed")

	// ErrRejected is returned when a downstream collaborator answers with a
	// non-200 status.
	ErrRejected = errors.New("downstream rejected request")
)

// Error provides structured error information for boundary operations.
type Error struct {
	Op     string // Operation: "Fetch", "UpdateDataset", "Notify", ...
	Target string // URL, path, or job the operation addressed
	Err    error  // Underlying error
}

// Error returns a formatted error string.
func (e *Error) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("service: %s %s failed: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("service: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error { return e.Err }

// IsNotFound checks if an error is ErrDatasetNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDatasetNotFound)
}

// IsRejected checks if an error is ErrRejected.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

// wrapError creates a new Error with the given operation and target.
func wrapError(op, target string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Target: target, Err: err}
}
