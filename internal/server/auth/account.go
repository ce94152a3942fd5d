package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/authcode"
	"github.com/dmitrijs2005/syncapi/internal/common"
	"github.com/dmitrijs2005/syncapi/internal/dbx"
	"github.com/dmitrijs2005/syncapi/internal/server/ledger"
	"github.com/dmitrijs2005/syncapi/internal/server/models"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/syncapi/internal/wire"
)

// AccountService syncs the user and device slots of the auth endpoint. These
// two kinds bootstrap the account and therefore do not go through the generic
// reconciler: a user Create carries its personal seed in ClientMessage, and a
// device Create decides the auto-authentication of the first device.
type AccountService struct {
	manager repomanager.RepositoryManager
}

func NewAccountService(manager repomanager.RepositoryManager) *AccountService {
	return &AccountService{manager: manager}
}

func (s *AccountService) Sync(ctx context.Context, tx dbx.DBTX, rc *RequestContext, req *wire.AuthRequest) (*wire.AuthResponse, error) {
	resp := &wire.AuthResponse{}
	led := ledger.New(s.manager.Versions(tx))

	if req.UserEntity != nil {
		out, err := s.syncUser(ctx, tx, rc, led, req, *req.UserEntity)
		if err != nil {
			return nil, err
		}
		resp.UserEntity = out
	}

	if req.DeviceEntity != nil {
		if err := s.syncDevice(ctx, tx, rc, led, *req.DeviceEntity); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

func (s *AccountService) syncUser(ctx context.Context, tx dbx.DBTX, rc *RequestContext, led *ledger.Ledger, req *wire.AuthRequest, entity wire.Entity) (*wire.Entity, error) {
	repo := s.manager.Users(tx)

	switch entity.OnlineAction {
	case wire.ActionCreate:
		seed, err := authcode.ValidatePersonalSeed(req.ClientMessage)
		if err != nil {
			return nil, err
		}
		// The account does not exist yet, so the token is checked against
		// the seed supplied in this very message.
		if err := authcode.Verify(req.AuthorizationCode, rc.App.ApplicationSeed, seed); err != nil {
			return nil, err
		}
		if rc.User != nil {
			return nil, common.ErrResourceAlreadyExists
		}
		user := &models.User{
			GUID:          entity.Id,
			Identifier:    entity.Identifier,
			ApplicationID: rc.App.ApplicationID,
			PersonalSeed:  seed,
		}
		if err := repo.Insert(ctx, user); err != nil {
			return nil, err
		}
		rc.User = user
		_, err = led.Append(ctx, user.GUID, models.KindUser, entity.Content)
		return nil, err

	case wire.ActionRead:
		if rc.User == nil {
			return nil, common.ErrUserNotFound
		}
		ver, err := led.ActiveVersion(ctx, rc.User.GUID, models.KindUser)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrResourceNotFound
			}
			return nil, err
		}
		out := &wire.Entity{
			Id:             rc.User.GUID,
			Identifier:     rc.User.Identifier,
			VersionId:      ver.VersionGUID,
			CreateDateTime: ver.CreateDateTime,
			OnlineAction:   wire.ActionRead,
		}
		if rc.User.IsDeleted {
			out.OnlineAction = wire.ActionDelete
		} else {
			// The personal seed lives outside the payload and is never
			// echoed back.
			out.Content = ver.Content
		}
		return out, nil

	case wire.ActionUpdate:
		if rc.User == nil {
			return nil, common.ErrUserNotFound
		}
		if rc.User.IsDeleted {
			if err := repo.SetDeleted(ctx, rc.User.GUID, false); err != nil {
				return nil, err
			}
			rc.User.IsDeleted = false
		}
		_, err := led.Append(ctx, rc.User.GUID, models.KindUser, entity.Content)
		return nil, err

	case wire.ActionDelete:
		if rc.User == nil {
			return nil, common.ErrUserNotFound
		}
		return nil, repo.SetDeleted(ctx, rc.User.GUID, true)

	default:
		return nil, common.ErrActionNotSupported
	}
}

func (s *AccountService) syncDevice(ctx context.Context, tx dbx.DBTX, rc *RequestContext, led *ledger.Ledger, entity wire.Entity) error {
	if rc.User == nil {
		return common.ErrUserNotFound
	}
	repo := s.manager.Devices(tx)

	device, err := s.getDevice(ctx, tx, rc, entity.Id)
	if err != nil {
		return err
	}

	switch entity.OnlineAction {
	case wire.ActionCreate:
		if device != nil {
			return common.ErrResourceAlreadyExists
		}
		count, err := repo.CountByUser(ctx, rc.User.GUID)
		if err != nil {
			return err
		}
		created := &models.Device{
			GUID:       entity.Id,
			UserGUID:   rc.User.GUID,
			Identifier: entity.Identifier,
			// The account's first device authenticates itself; every later
			// one has to redeem a pairing code.
			IsAuthenticated: count == 0,
		}
		if err := repo.Insert(ctx, created); err != nil {
			return err
		}
		rc.Device = created
		_, err = led.Append(ctx, created.GUID, models.KindDevice, entity.Content)
		return err

	case wire.ActionUpdate:
		if device == nil {
			return common.ErrDeviceNotFound
		}
		if device.IsDeleted {
			if err := repo.SetDeleted(ctx, device.GUID, false); err != nil {
				return err
			}
			device.IsDeleted = false
		}
		_, err := led.Append(ctx, device.GUID, models.KindDevice, entity.Content)
		return err

	case wire.ActionDelete:
		if device == nil {
			return common.ErrDeviceNotFound
		}
		return repo.SetDeleted(ctx, device.GUID, true)

	default:
		return common.ErrActionNotSupported
	}
}

func (s *AccountService) getDevice(ctx context.Context, tx dbx.DBTX, rc *RequestContext, guid uuid.UUID) (*models.Device, error) {
	if rc.Device != nil && rc.Device.GUID == guid {
		return rc.Device, nil
	}
	device, err := s.manager.Devices(tx).Get(ctx, guid)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if device.UserGUID != rc.User.GUID {
		return nil, common.ErrDeviceNotFound
	}
	return device, nil
}
