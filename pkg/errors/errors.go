package mf_errors

import (
	"errors"
)

// Common errors
var (
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrGone               = errors.New("session expired")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTooLarge           = errors.New("file too large")
	ErrOutOfRange         = errors.New("chunk index out of range")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrSizeMismatch       = errors.New("assembled size mismatch")
	ErrInvalidReference   = errors.New("invalid storage reference")
)

// Code returns the stable machine-readable code for an error, suitable
// for the code field of an API error response. Unknown errors map to
// UNKNOWN_ERROR and should be logged with context by the caller.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrTooLarge):
		return "CLIENT_VALIDATION"
	case errors.Is(err, ErrUnauthorized):
		return "AUTHENTICATION_REQUIRED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrGone):
		return "NOT_FOUND_OR_EXPIRED"
	case errors.Is(err, ErrOutOfRange):
		return "CHUNK_OUT_OF_RANGE"
	case errors.Is(err, ErrConflict):
		return "SESSION_COMPLETED"
	case errors.Is(err, ErrSizeMismatch):
		return "FINALIZE_INTEGRITY"
	case errors.Is(err, ErrStorageUnavailable):
		return "STORAGE_UNAVAILABLE"
	case errors.Is(err, ErrInvalidReference):
		return "INVALID_REFERENCE"
	default:
		return "UNKNOWN_ERROR"
	}
}
