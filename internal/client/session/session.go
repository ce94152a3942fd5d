// Package session owns the client's identity: the user and device it acts
// as, the rotating authorization token, and the pairing handshake that gets
// a new device authenticated.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/authcode"
	"github.com/dmitrijs2005/syncapi/internal/client/config"
	"github.com/dmitrijs2005/syncapi/internal/client/storage"
	"github.com/dmitrijs2005/syncapi/internal/client/transport"
	"github.com/dmitrijs2005/syncapi/internal/common"
	"github.com/dmitrijs2005/syncapi/internal/logging"
	"github.com/dmitrijs2005/syncapi/internal/wire"
)

const (
	keyUserID            = "user_id"
	keyDeviceID          = "device_id"
	keyIdentitySynced    = "identity_synced"
	keyDefaultCollection = "default_collection_id"
)

type Session struct {
	cfg    *config.Config
	api    *transport.Client
	store  *storage.Store
	logger logging.Logger

	seed int64

	mu       sync.Mutex
	userID   uuid.UUID
	deviceID uuid.UUID
	synced   bool
}

// New validates the configured personal seed and prepares a session. No
// network traffic happens until the first operation needs an identity.
func New(cfg *config.Config, api *transport.Client, store *storage.Store, logger logging.Logger) (*Session, error) {
	seed, err := authcode.ValidatePersonalSeed(cfg.PersonalSeed)
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:    cfg,
		api:    api,
		store:  store,
		logger: logger.With("component", "session"),
		seed:   seed,
	}, nil
}

// EnsureIdentity lazily establishes the local user and device. The first
// call on a fresh cache mints both ids, queues them as Create and registers
// them with the server; later calls just load the stored ids.
func (s *Session) EnsureIdentity(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.synced {
		return nil
	}

	if err := s.loadOrMintIdentity(ctx); err != nil {
		return err
	}

	flag, err := s.store.GetValue(ctx, keyIdentitySynced)
	if err != nil && err != common.ErrNotFound {
		return err
	}
	if flag == "1" {
		s.synced = true
		return nil
	}

	if err := s.registerIdentity(ctx); err != nil {
		return err
	}

	if err := s.store.SetValue(ctx, keyIdentitySynced, "1"); err != nil {
		return err
	}
	s.synced = true
	return nil
}

func (s *Session) loadOrMintIdentity(ctx context.Context) error {
	if s.userID != uuid.Nil {
		return nil
	}

	userID, err := s.loadOrMintID(ctx, keyUserID)
	if err != nil {
		return err
	}
	deviceID, err := s.loadOrMintID(ctx, keyDeviceID)
	if err != nil {
		return err
	}
	s.userID, s.deviceID = userID, deviceID
	return nil
}

func (s *Session) loadOrMintID(ctx context.Context, key string) (uuid.UUID, error) {
	value, err := s.store.GetValue(ctx, key)
	if err == nil {
		return uuid.Parse(value)
	}
	if err != common.ErrNotFound {
		return uuid.Nil, err
	}

	id := uuid.New()
	if err := s.store.SetValue(ctx, key, id.String()); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// registerIdentity creates the user and device on the server. The personal
// seed travels in ClientMessage and is only ever sent on this first call.
func (s *Session) registerIdentity(ctx context.Context) error {
	base, err := s.baseRequestLocked(ctx)
	if err != nil {
		return err
	}
	base.ClientMessage = s.cfg.PersonalSeed

	req := &wire.AuthRequest{
		BaseRequest: base,
		UserEntity: &wire.Entity{
			Id:           s.userID,
			OnlineAction: wire.ActionCreate,
			Identifier:   s.cfg.UserName,
		},
		DeviceEntity: &wire.Entity{
			Id:           s.deviceID,
			UserId:       s.userID,
			OnlineAction: wire.ActionCreate,
			Identifier:   s.cfg.DeviceName,
		},
	}

	resp := s.api.AuthSync(ctx, req)
	if resp.Failed() {
		// A lost acknowledgement leaves the server side registered; accept
		// the duplicate and move on.
		if resp.ApiError == wire.ApiErrorResourceAlreadyExists {
			s.logger.Warn(ctx, "identity already registered")
			return nil
		}
		return fmt.Errorf("registering identity: %s", resp.ServerMessage)
	}
	return nil
}

// BaseRequest builds the common envelope for one message, advancing the
// message counter and deriving a fresh authorization token.
func (s *Session) BaseRequest(ctx context.Context) (wire.BaseRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseRequestLocked(ctx)
}

func (s *Session) baseRequestLocked(ctx context.Context) (wire.BaseRequest, error) {
	counter, err := s.store.NextCounter(ctx)
	if err != nil {
		return wire.BaseRequest{}, err
	}
	token := authcode.Token(s.cfg.ApplicationSeed, s.seed, counter)

	return wire.BaseRequest{
		UserId:            s.userID,
		DeviceId:          s.deviceID,
		ApplicationId:     s.cfg.ApplicationID,
		AuthorizationCode: authcode.Format(counter, token),
	}, nil
}

// GeneratePairingCode asks the server for a one-time code another device of
// the same user can redeem. Only an authenticated device may call this.
func (s *Session) GeneratePairingCode(ctx context.Context) (string, error) {
	if err := s.EnsureIdentity(ctx); err != nil {
		return "", err
	}
	base, err := s.BaseRequest(ctx)
	if err != nil {
		return "", err
	}

	resp := s.api.GenerateCode(ctx, &wire.AuthRequest{BaseRequest: base})
	if resp.Failed() {
		return "", fmt.Errorf("generating pairing code: %s", resp.ServerMessage)
	}
	return resp.ServerMessage, nil
}

// RedeemPairingCode authenticates this device with a code generated on
// another device of the same user.
func (s *Session) RedeemPairingCode(ctx context.Context, code string) error {
	if err := s.EnsureIdentity(ctx); err != nil {
		return err
	}
	base, err := s.BaseRequest(ctx)
	if err != nil {
		return err
	}
	base.ClientMessage = code

	resp := s.api.UseCode(ctx, &wire.AuthRequest{BaseRequest: base})
	if resp.Failed() {
		return fmt.Errorf("redeeming pairing code: %s", resp.ServerMessage)
	}
	return nil
}

// EnsureDefaultCollection returns the device's default collection, creating
// and registering it on first use.
func (s *Session) EnsureDefaultCollection(ctx context.Context) (uuid.UUID, error) {
	if err := s.EnsureIdentity(ctx); err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := s.store.GetValue(ctx, keyDefaultCollection)
	if err == nil {
		return uuid.Parse(value)
	}
	if err != common.ErrNotFound {
		return uuid.Nil, err
	}

	base, err := s.baseRequestLocked(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	id := uuid.New()
	req := &wire.CollectionRequest{
		BaseRequest: base,
		CollectionEntities: []wire.Entity{{
			Id:           id,
			OnlineAction: wire.ActionCreate,
			Identifier:   "default",
		}},
	}
	resp := s.api.SyncCollections(ctx, req)
	if resp.Failed() {
		return uuid.Nil, fmt.Errorf("creating default collection: %s", resp.ServerMessage)
	}

	if err := s.store.SetValue(ctx, keyDefaultCollection, id.String()); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
