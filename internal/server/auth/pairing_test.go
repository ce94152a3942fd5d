package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/syncapi/internal/common"
	"github.com/dmitrijs2005/syncapi/internal/server/models"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/repotest"
)

func TestReadableCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := ReadableCode(6)
		require.Len(t, code, 6)
		for pos, ch := range code {
			if pos%2 == 0 {
				assert.True(t, strings.ContainsRune(Consonants, ch), "position %d of %q", pos, code)
			} else {
				assert.True(t, strings.ContainsRune(Vowels, ch), "position %d of %q", pos, code)
			}
		}
	}
}

func TestReadableCodeOddLength(t *testing.T) {
	assert.Len(t, ReadableCode(5), 4)
	assert.Empty(t, ReadableCode(1))
}

type pairingFixture struct {
	manager *repotest.Manager
	service *PairingService
	user    *models.User
	first   *models.Device
	second  *models.Device
	clock   time.Time
}

func newPairingFixture(t *testing.T) *pairingFixture {
	t.Helper()
	ctx := context.Background()
	manager := repotest.NewManager()

	f := &pairingFixture{
		manager: manager,
		user:    &models.User{GUID: uuid.New(), Identifier: "alice"},
		first:   &models.Device{GUID: uuid.New(), Identifier: "laptop", IsAuthenticated: true},
		second:  &models.Device{GUID: uuid.New(), Identifier: "phone"},
		clock:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	f.first.UserGUID = f.user.GUID
	f.second.UserGUID = f.user.GUID

	require.NoError(t, manager.Users(nil).Insert(ctx, f.user))
	require.NoError(t, manager.Devices(nil).Insert(ctx, f.first))
	require.NoError(t, manager.Devices(nil).Insert(ctx, f.second))

	f.service = NewPairingService(manager, 6, 10*time.Minute)
	f.service.now = func() time.Time { return f.clock }
	return f
}

func (f *pairingFixture) rc(device *models.Device) *RequestContext {
	return &RequestContext{User: f.user, Device: device}
}

func TestGenerateRequiresAuthenticatedDevice(t *testing.T) {
	f := newPairingFixture(t)

	_, err := f.service.GenerateCode(context.Background(), nil, f.rc(f.second))
	assert.ErrorIs(t, err, common.ErrDeviceNotAuthorized)
}

func TestRedeemAuthenticatesDevice(t *testing.T) {
	f := newPairingFixture(t)
	ctx := context.Background()

	code, err := f.service.GenerateCode(ctx, nil, f.rc(f.first))
	require.NoError(t, err)
	require.Len(t, code, 6)

	require.NoError(t, f.service.RedeemCode(ctx, nil, f.rc(f.second), code))

	device, err := f.manager.Devices(nil).Get(ctx, f.second.GUID)
	require.NoError(t, err)
	assert.True(t, device.IsAuthenticated)
}

func TestRedeemIsSingleUse(t *testing.T) {
	f := newPairingFixture(t)
	ctx := context.Background()

	code, err := f.service.GenerateCode(ctx, nil, f.rc(f.first))
	require.NoError(t, err)

	require.NoError(t, f.service.RedeemCode(ctx, nil, f.rc(f.second), code))
	err = f.service.RedeemCode(ctx, nil, f.rc(f.second), code)
	assert.ErrorIs(t, err, common.ErrAuthorizationCodeInvalid)
}

func TestRedeemExpiredCode(t *testing.T) {
	f := newPairingFixture(t)
	ctx := context.Background()

	code, err := f.service.GenerateCode(ctx, nil, f.rc(f.first))
	require.NoError(t, err)

	f.clock = f.clock.Add(11 * time.Minute)
	err = f.service.RedeemCode(ctx, nil, f.rc(f.second), code)
	assert.ErrorIs(t, err, common.ErrAuthorizationCodeInvalid)
}

func TestRedeemUnknownCode(t *testing.T) {
	f := newPairingFixture(t)

	err := f.service.RedeemCode(context.Background(), nil, f.rc(f.second), "bodipu")
	assert.ErrorIs(t, err, common.ErrAuthorizationCodeInvalid)
}

func TestRedeemCodeOfOtherUser(t *testing.T) {
	f := newPairingFixture(t)
	ctx := context.Background()

	code, err := f.service.GenerateCode(ctx, nil, f.rc(f.first))
	require.NoError(t, err)

	stranger := &models.User{GUID: uuid.New(), Identifier: "mallory"}
	require.NoError(t, f.manager.Users(nil).Insert(ctx, stranger))
	strangerDevice := &models.Device{GUID: uuid.New(), UserGUID: stranger.GUID}
	require.NoError(t, f.manager.Devices(nil).Insert(ctx, strangerDevice))

	err = f.service.RedeemCode(ctx, nil, &RequestContext{User: stranger, Device: strangerDevice}, code)
	assert.ErrorIs(t, err, common.ErrAuthorizationCodeInvalid)
}
