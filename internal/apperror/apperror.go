// Package apperror defines the error kinds surfaced by the survey and asset services.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindNotFound            Kind = "not_found"
	KindAccessDenied        Kind = "access_denied"
	KindConflict            Kind = "conflict"
	KindInvalidState        Kind = "invalid_state"
	KindAlreadyDecided      Kind = "already_decided"
	KindEditCommentRequired Kind = "edit_comment_required"
	KindReasonRequired      Kind = "reason_required"
	KindInvalidAsset        Kind = "invalid_asset"
	KindRemoteWrite         Kind = "remote_write_error"
	KindRemoteRead          Kind = "remote_read_error"
	KindRemoteNotFound      Kind = "remote_not_found"
	KindRemoteDelete        Kind = "remote_delete_error"
	KindUploadFailed        Kind = "upload_failed"
	KindInternal            Kind = "internal_error"
)

// Error carries a stable Kind plus a message that is safe to show to callers.
// Err holds the underlying cause and is never rendered to clients.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Field builds a validation error that names the offending input field.
func Field(field, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindInternal when err carries none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindEditCommentRequired, KindReasonRequired, KindInvalidAsset:
		return http.StatusBadRequest
	case KindNotFound, KindRemoteNotFound:
		return http.StatusNotFound
	case KindAccessDenied:
		return http.StatusForbidden
	case KindConflict, KindInvalidState, KindAlreadyDecided:
		return http.StatusConflict
	case KindRemoteWrite, KindRemoteRead, KindRemoteDelete, KindUploadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
