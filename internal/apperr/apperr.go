// Package apperr defines the error taxonomy shared by the authentication
// services and the HTTP layer. Every error leaving a service carries one of
// the codes below; the transport maps the code to a status and never shows
// the wrapped cause of an internal error to the caller.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/samber/oops"
)

// Error codes.
const (
	CodeValidation     = "VALIDATION"
	CodeConflict       = "CONFLICT"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeSessionInvalid = "SESSION_INVALID"
	CodeInvalidToken   = "INVALID_TOKEN"
	CodeInternal       = "INTERNAL"
)

// Messages that must stay identical whatever the underlying cause.
const (
	MsgInvalidCredentials = "invalid credentials"
	MsgInvalidResetToken  = "Invalid or expired reset token"
	MsgSessionRequired    = "Access token required"
	MsgSessionInvalid     = "Invalid or expired token"
	MsgInternal           = "internal server error"
)

// Validation wraps a client-correctable input error.
func Validation(err error) error {
	return oops.Code(CodeValidation).Wrap(err)
}

// Conflict reports a uniqueness violation.
func Conflict(format string, args ...any) error {
	return oops.Code(CodeConflict).Errorf(format, args...)
}

// InvalidCredentials is returned for every failed login, whatever the cause.
func InvalidCredentials() error {
	return oops.Code(CodeUnauthorized).Errorf(MsgInvalidCredentials)
}

// SessionRequired is returned when no session credential was presented.
func SessionRequired() error {
	return oops.Code(CodeUnauthorized).Errorf(MsgSessionRequired)
}

// SessionInvalid is returned for a credential that fails signature or expiry checks.
func SessionInvalid(cause error) error {
	return oops.Code(CodeSessionInvalid).With("cause", cause.Error()).Errorf(MsgSessionInvalid)
}

// InvalidResetToken is returned for unknown, expired and already used reset tokens alike.
func InvalidResetToken() error {
	return oops.Code(CodeInvalidToken).Errorf(MsgInvalidResetToken)
}

// Internal wraps a store or hashing failure.
func Internal(operation string, err error) error {
	return oops.Code(CodeInternal).With("operation", operation).Wrap(err)
}

// CodeOf returns the taxonomy code of err. Errors that did not pass through
// this package are treated as internal.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}

	var oopsErr oops.OopsError
	if errors.As(err, &oopsErr) {
		if code := fmt.Sprint(oopsErr.Code()); code != "" && code != "<nil>" {
			return code
		}
	}

	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return CodeOf(err) == code
}

// HTTPStatus maps err to the response status.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation, CodeInvalidToken:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeSessionInvalid:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text that may be shown to the caller.
func PublicMessage(err error) string {
	switch CodeOf(err) {
	case CodeInternal:
		return MsgInternal
	case CodeSessionInvalid:
		return MsgSessionInvalid
	default:
		var oopsErr oops.OopsError
		if errors.As(err, &oopsErr) {
			return oopsErr.Error()
		}
		return MsgInternal
	}
}
