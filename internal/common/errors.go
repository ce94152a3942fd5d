// Package common defines shared constants and sentinel errors used across
// client and server layers of the sync API. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Server-fault errors. Never exposed verbatim to callers; handlers log
	// them and answer with an opaque failure.
	ErrInternal = errors.New("internal error")

	// Client-fault errors, surfaced with a stable wire error code.
	ErrResourceNotFound         = errors.New("resource not found")
	ErrResourceAlreadyExists    = errors.New("resource already exists")
	ErrActionProhibited         = errors.New("action prohibited")
	ErrActionNotSupported       = errors.New("action not supported")
	ErrAuthorizationCodeInvalid = errors.New("authorization code invalid")
	ErrDeviceNotFound           = errors.New("device not found")
	ErrDeviceNotAuthorized      = errors.New("device not authorized")
	ErrUserNotFound             = errors.New("user not found")
	ErrApplicationNotFound      = errors.New("application not found")
	ErrPersonalSeedMissing      = errors.New("personal seed missing")
	ErrPersonalSeedNotNumeric   = errors.New("personal seed not numeric")
	ErrPersonalSeedTooSmall     = errors.New("personal seed too small")
	ErrUnauthorized             = errors.New("unauthorized")
)

// IsClientFault reports whether err is a bad-input error that should be
// surfaced to the caller with its stable code, as opposed to an internal
// failure that must stay opaque.
func IsClientFault(err error) bool {
	for _, e := range []error{
		ErrResourceNotFound, ErrResourceAlreadyExists, ErrActionProhibited,
		ErrActionNotSupported, ErrAuthorizationCodeInvalid, ErrDeviceNotFound,
		ErrDeviceNotAuthorized, ErrUserNotFound, ErrApplicationNotFound,
		ErrPersonalSeedMissing, ErrPersonalSeedNotNumeric, ErrPersonalSeedTooSmall,
		ErrUnauthorized,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
