package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Lock errors
	ErrLockHeld    = errors.New("lock is held by another holder")
	ErrLockTimeout = errors.New("timed out waiting for lock")

	// Ledger errors
	ErrLedgerCorrupted = errors.New("ledger document failed integrity check")

	// Signer errors
	ErrSignerNotConfigured = errors.New("signer wallet is not configured")
)

// ValidationError reports rejected input. Validation failures are surfaced
// synchronously to the caller and never retried or recorded in the ledger.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for one rejected field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is an input-validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
