// Package auth gates every request at the boundary: it resolves the caller's
// application, user and device, verifies the rotating authorization token,
// manages device pairing codes and handles the user/device sync slots.
package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/authcode"
	"github.com/dmitrijs2005/syncapi/internal/common"
	"github.com/dmitrijs2005/syncapi/internal/dbx"
	"github.com/dmitrijs2005/syncapi/internal/server/models"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/syncapi/internal/wire"
)

// RequestContext is the resolved identity of one request. User and Device
// stay nil for bootstrap requests whose account or device does not exist yet.
type RequestContext struct {
	App    *models.Application
	User   *models.User
	Device *models.Device
}

// Resolver authenticates requests. It is consulted by every endpoint before
// any entity work happens.
type Resolver struct {
	manager repomanager.RepositoryManager
}

func NewResolver(manager repomanager.RepositoryManager) *Resolver {
	return &Resolver{manager: manager}
}

// Authorize validates the application and, when the claimed user exists,
// verifies the request token against the stored personal seed. A request for
// a not-yet-created user passes with a nil User; the account sync endpoint
// verifies such requests against the seed supplied in the same message.
func (r *Resolver) Authorize(ctx context.Context, tx dbx.DBTX, req wire.BaseRequest) (*RequestContext, error) {
	app, err := r.manager.Applications(tx).GetByApplicationID(ctx, req.ApplicationId)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrApplicationNotFound
		}
		return nil, err
	}

	rc := &RequestContext{App: app}
	if req.UserId == uuid.Nil {
		return nil, common.ErrUnauthorized
	}

	user, err := r.manager.Users(tx).Get(ctx, req.UserId)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if user == nil {
		return rc, nil
	}

	if err := authcode.Verify(req.AuthorizationCode, app.ApplicationSeed, user.PersonalSeed); err != nil {
		return nil, err
	}
	rc.User = user

	if req.DeviceId != uuid.Nil {
		device, err := r.manager.Devices(tx).Get(ctx, req.DeviceId)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		if device != nil && device.UserGUID == user.GUID {
			rc.Device = device
		}
	}

	return rc, nil
}

// Authenticate requires a fully resolved, authenticated device. Sync
// endpoints call it after Authorize; pairing endpoints do not, since a device
// redeems a code precisely because it is not authenticated yet.
func (r *Resolver) Authenticate(rc *RequestContext) error {
	if rc.User == nil {
		return common.ErrUserNotFound
	}
	if rc.Device == nil {
		return common.ErrDeviceNotFound
	}
	if !rc.Device.IsAuthenticated {
		return common.ErrDeviceNotAuthorized
	}
	return nil
}
