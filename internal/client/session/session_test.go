package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/syncapi/internal/authcode"
	"github.com/dmitrijs2005/syncapi/internal/client/config"
	"github.com/dmitrijs2005/syncapi/internal/client/storage"
	"github.com/dmitrijs2005/syncapi/internal/client/transport"
	"github.com/dmitrijs2005/syncapi/internal/common"
	"github.com/dmitrijs2005/syncapi/internal/logging"
	"github.com/dmitrijs2005/syncapi/internal/wire"
)

// fakeServer emulates the auth endpoints and records what it saw.
type fakeServer struct {
	mu            sync.Mutex
	authSyncCalls int
	lastAuthSync  wire.AuthRequest
	usedCode      string
	collections   int
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/1.0/auth/sync", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.authSyncCalls++
		json.NewDecoder(r.Body).Decode(&f.lastAuthSync)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(&wire.AuthResponse{})
	})
	mux.HandleFunc("/1.0/auth/generate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&wire.AuthResponse{
			BaseResponse: wire.BaseResponse{ServerMessage: "bodipu"},
		})
	})
	mux.HandleFunc("/1.0/auth/use", func(w http.ResponseWriter, r *http.Request) {
		var req wire.AuthRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.usedCode = req.ClientMessage
		f.mu.Unlock()
		json.NewEncoder(w).Encode(&wire.AuthResponse{})
	})
	mux.HandleFunc("/1.0/collections/sync", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.collections++
		f.mu.Unlock()
		json.NewEncoder(w).Encode(&wire.CollectionResponse{})
	})
	return mux
}

func (f *fakeServer) syncCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authSyncCalls
}

func (f *fakeServer) lastSync() wire.AuthRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuthSync
}

func (f *fakeServer) redeemedCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usedCode
}

func (f *fakeServer) collectionCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.collections
}

type sessionFixture struct {
	server  *fakeServer
	store   *storage.Store
	cfg     *config.Config
	session *Session
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	fake := &fakeServer{}
	httpServer := httptest.NewServer(fake.handler())
	t.Cleanup(httpServer.Close)

	cfg := &config.Config{
		BaseURL:         httpServer.URL,
		ApplicationID:   "app",
		ApplicationSeed: 84370274,
		PersonalSeed:    "621842297",
		UserName:        "alice",
		DeviceName:      "laptop",
	}
	store, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	sess, err := New(cfg, transport.NewClient(cfg.BaseURL, logger), store, logger)
	require.NoError(t, err)

	return &sessionFixture{server: fake, store: store, cfg: cfg, session: sess}
}

func TestNewRejectsInvalidSeed(t *testing.T) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := New(&config.Config{PersonalSeed: "12"}, nil, nil, logger)
	assert.ErrorIs(t, err, common.ErrPersonalSeedTooSmall)

	_, err = New(&config.Config{}, nil, nil, logger)
	assert.ErrorIs(t, err, common.ErrPersonalSeedMissing)
}

func TestEnsureIdentityRegistersOnce(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)

	require.NoError(t, f.session.EnsureIdentity(ctx))
	require.NoError(t, f.session.EnsureIdentity(ctx))
	assert.Equal(t, 1, f.server.syncCalls())

	req := f.server.lastSync()
	require.NotNil(t, req.UserEntity)
	require.NotNil(t, req.DeviceEntity)
	assert.Equal(t, wire.ActionCreate, req.UserEntity.OnlineAction)
	assert.Equal(t, "alice", req.UserEntity.Identifier)
	assert.Equal(t, wire.ActionCreate, req.DeviceEntity.OnlineAction)
	assert.Equal(t, "laptop", req.DeviceEntity.Identifier)
	assert.Equal(t, "621842297", req.ClientMessage)
	assert.Equal(t, req.UserId, req.UserEntity.Id)
	assert.Equal(t, req.DeviceId, req.DeviceEntity.Id)
}

func TestIdentitySurvivesNewSession(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)

	require.NoError(t, f.session.EnsureIdentity(ctx))
	userID, err := f.store.GetValue(ctx, "user_id")
	require.NoError(t, err)

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	again, err := New(f.cfg, transport.NewClient(f.cfg.BaseURL, logger), f.store, logger)
	require.NoError(t, err)
	require.NoError(t, again.EnsureIdentity(ctx))

	// No second registration, same stored identity.
	assert.Equal(t, 1, f.server.syncCalls())
	base, err := again.BaseRequest(ctx)
	require.NoError(t, err)
	assert.Equal(t, userID, base.UserId.String())
}

func TestBaseRequestRotatesToken(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)

	first, err := f.session.BaseRequest(ctx)
	require.NoError(t, err)
	second, err := f.session.BaseRequest(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first.AuthorizationCode, second.AuthorizationCode)
	assert.NoError(t, authcode.Verify(first.AuthorizationCode, 84370274, 621842297))
	assert.NoError(t, authcode.Verify(second.AuthorizationCode, 84370274, 621842297))

	firstCounter, _, err := authcode.Parse(first.AuthorizationCode)
	require.NoError(t, err)
	secondCounter, _, err := authcode.Parse(second.AuthorizationCode)
	require.NoError(t, err)
	assert.Equal(t, firstCounter+1, secondCounter)
}

func TestGeneratePairingCode(t *testing.T) {
	f := newSessionFixture(t)

	code, err := f.session.GeneratePairingCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bodipu", code)
}

func TestRedeemPairingCode(t *testing.T) {
	f := newSessionFixture(t)

	require.NoError(t, f.session.RedeemPairingCode(context.Background(), "bodipu"))
	assert.Equal(t, "bodipu", f.server.redeemedCode())
}

func TestEnsureDefaultCollectionIsStable(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t)

	first, err := f.session.EnsureDefaultCollection(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, first)

	second, err := f.session.EnsureDefaultCollection(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.server.collectionCalls())
}
