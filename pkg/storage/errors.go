package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the storage layer. Callers branch on these
// with errors.Is; anything else is an unexpected store failure.
var (
	// ErrNotFound indicates the referenced record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates a uniqueness constraint violation
	ErrConflict = errors.New("record already exists")

	// ErrValidation indicates the input was rejected before any write
	ErrValidation = errors.New("validation failed")
)

// ValidationError wraps ErrValidation with the reason the input was rejected
func ValidationError(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint error.
// The driver does not export a typed error for this, so we match the message
// the same way the sqlite3 tooling does.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
