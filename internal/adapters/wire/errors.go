package wire

import (
	"context"
	"errors"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
)

// Error codes sent to clients.
const (
	CodeInvalidPayload    = "INVALID_PAYLOAD"
	CodeUnknownEvent      = "UNKNOWN_EVENT"
	CodeItemNotFound      = "ITEM_NOT_FOUND"
	CodeContainerNotFound = "CONTAINER_NOT_FOUND"
	CodeDocumentNotFound  = "DOCUMENT_NOT_FOUND"
	CodeNotFound          = "NOT_FOUND"
	CodeStaleEdit         = "STALE_EDIT_CONFLICT"
	CodeStoreWriteFailed  = "STORE_WRITE_FAILED"
	CodeUnavailable       = "UNAVAILABLE"
	CodeBusy              = "ROOM_BUSY"
	CodeInternal          = "INTERNAL"
)

// ErrBusy is returned when a room's event backlog is full.
var ErrBusy = errors.New("room busy")

// ErrorCode maps an error to its client-facing code. Specific sentinels are
// checked before the generic ones they wrap. A write that failed its
// post-commit check wraps both ErrStoreWriteFailed and ErrValidation and is
// reported as a store failure. A commit against a document that no longer
// exists wraps both ErrStaleEdit and ErrDocumentNotFound and is reported as
// stale.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrStoreWriteFailed),
		errors.Is(err, domain.ErrVersionConflict):
		return CodeStoreWriteFailed
	case errors.Is(err, domain.ErrValidation):
		return CodeInvalidPayload
	case errors.Is(err, domain.ErrStaleEdit):
		return CodeStaleEdit
	case errors.Is(err, domain.ErrItemNotFound):
		return CodeItemNotFound
	case errors.Is(err, domain.ErrContainerNotFound):
		return CodeContainerNotFound
	case errors.Is(err, domain.ErrDocumentNotFound):
		return CodeDocumentNotFound
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrBusy):
		return CodeBusy
	case errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return CodeUnavailable
	default:
		return CodeInternal
	}
}

// NewError builds the wire error for err. Internal errors carry a generic
// message.
func NewError(err error) *Error {
	code := ErrorCode(err)
	msg := err.Error()
	if code == CodeInternal {
		msg = "internal error"
	}
	return &Error{Code: code, Message: msg}
}

// ToError converts a wire error back to a domain error, so Go clients can
// match sentinels with errors.Is.
func ToError(e *Error) error {
	if e == nil {
		return nil
	}
	var base error
	switch e.Code {
	case CodeInvalidPayload:
		base = domain.ErrValidation
	case CodeItemNotFound:
		base = domain.ErrItemNotFound
	case CodeContainerNotFound:
		base = domain.ErrContainerNotFound
	case CodeDocumentNotFound:
		base = domain.ErrDocumentNotFound
	case CodeNotFound:
		base = domain.ErrNotFound
	case CodeStaleEdit:
		base = domain.ErrStaleEdit
	case CodeStoreWriteFailed:
		base = domain.ErrStoreWriteFailed
	case CodeBusy:
		base = ErrBusy
	case CodeUnavailable:
		base = domain.ErrUnavailable
	default:
		return &RemoteError{Code: e.Code, Message: e.Message}
	}
	return &RemoteError{Code: e.Code, Message: e.Message, base: base}
}

// RemoteError is an error reported by the server.
type RemoteError struct {
	Code    string
	Message string
	base    error
}

func (e *RemoteError) Error() string { return e.Code + ": " + e.Message }

func (e *RemoteError) Unwrap() error { return e.base }
