package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is() checking.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)

// Engine errors. Each wraps one of the generic sentinels above so transport
// layers can map broad categories while callers can still match precisely.
var (
	ErrItemNotFound      = fmt.Errorf("item %w", ErrNotFound)
	ErrContainerNotFound = fmt.Errorf("container %w", ErrNotFound)
	ErrDocumentNotFound  = fmt.Errorf("document %w", ErrNotFound)
	ErrRoomNotFound      = fmt.Errorf("room %w", ErrNotFound)

	// ErrVersionConflict means a container changed between read and write.
	// Services retry on it; it should not reach clients.
	ErrVersionConflict = fmt.Errorf("container version %w", ErrConflict)

	// ErrStaleEdit means a document commit arrived after the document was
	// archived or deleted.
	ErrStaleEdit = fmt.Errorf("stale edit %w", ErrConflict)

	ErrStoreWriteFailed = fmt.Errorf("store write failed: %w", ErrUnavailable)
)

// Validation messages shared by entity validators.
const (
	MsgRequired = "is required"
	MsgNegative = "must not be negative"
)

// ValidationError provides programmatic access to field-level validation failures.
// Use errors.Is(err, ErrValidation) for simple checks, or errors.As(err, &verr) to
// access verr.Fields for per-field error details.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
