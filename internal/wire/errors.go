package wire

import (
	"errors"

	"github.com/dmitrijs2005/syncapi/internal/common"
)

// ApiError is the stable numeric error code carried in response envelopes.
type ApiError int

const (
	ApiErrorNone ApiError = iota
	ApiErrorResourceNotFound
	ApiErrorResourceAlreadyExists
	ApiErrorActionProhibited
	ApiErrorActionNotSupported
	ApiErrorAuthorizationCodeInvalid
	ApiErrorDeviceNotFound
	ApiErrorDeviceNotAuthorized
	ApiErrorUserNotFound
	ApiErrorApplicationNotFound
	ApiErrorPersonalSeedMissing
	ApiErrorPersonalSeedNotNumeric
	ApiErrorPersonalSeedTooSmall
	ApiErrorUnauthorized
)

// ApiErrorServerFailure is the opaque code for internal failures.
const ApiErrorServerFailure ApiError = 100

var codeByErr = []struct {
	err  error
	code ApiError
}{
	{common.ErrResourceNotFound, ApiErrorResourceNotFound},
	{common.ErrResourceAlreadyExists, ApiErrorResourceAlreadyExists},
	{common.ErrActionProhibited, ApiErrorActionProhibited},
	{common.ErrActionNotSupported, ApiErrorActionNotSupported},
	{common.ErrAuthorizationCodeInvalid, ApiErrorAuthorizationCodeInvalid},
	{common.ErrDeviceNotFound, ApiErrorDeviceNotFound},
	{common.ErrDeviceNotAuthorized, ApiErrorDeviceNotAuthorized},
	{common.ErrUserNotFound, ApiErrorUserNotFound},
	{common.ErrApplicationNotFound, ApiErrorApplicationNotFound},
	{common.ErrPersonalSeedMissing, ApiErrorPersonalSeedMissing},
	{common.ErrPersonalSeedNotNumeric, ApiErrorPersonalSeedNotNumeric},
	{common.ErrPersonalSeedTooSmall, ApiErrorPersonalSeedTooSmall},
	{common.ErrUnauthorized, ApiErrorUnauthorized},
}

// CodeFor maps a sentinel error to its wire code. Anything unmapped is an
// internal failure and comes back as ApiErrorServerFailure.
func CodeFor(err error) ApiError {
	for _, m := range codeByErr {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return ApiErrorServerFailure
}
