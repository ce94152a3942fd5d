package wire

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/syncapi/internal/common"
)

func TestCodeFor(t *testing.T) {
	tests := []struct {
		err  error
		code ApiError
	}{
		{common.ErrResourceNotFound, ApiErrorResourceNotFound},
		{common.ErrResourceAlreadyExists, ApiErrorResourceAlreadyExists},
		{common.ErrActionProhibited, ApiErrorActionProhibited},
		{common.ErrAuthorizationCodeInvalid, ApiErrorAuthorizationCodeInvalid},
		{common.ErrPersonalSeedTooSmall, ApiErrorPersonalSeedTooSmall},
		{common.ErrUnauthorized, ApiErrorUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.code, CodeFor(tt.err))
		})
	}
}

func TestCodeForWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("syncing records: %w", common.ErrActionProhibited)
	assert.Equal(t, ApiErrorActionProhibited, CodeFor(wrapped))
}

func TestCodeForUnknownError(t *testing.T) {
	assert.Equal(t, ApiErrorServerFailure, CodeFor(errors.New("disk on fire")))
}

func TestSetFailure(t *testing.T) {
	var resp CollectionResponse
	assert.False(t, resp.Failed())

	resp.SetFailure(ApiErrorActionProhibited, "action prohibited")
	assert.True(t, resp.Failed())
	assert.Equal(t, ApiErrorActionProhibited, resp.ApiError)
	assert.Equal(t, "action prohibited", resp.ServerMessage)
}
