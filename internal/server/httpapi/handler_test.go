package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/syncapi/internal/logging"
	"github.com/dmitrijs2005/syncapi/internal/server/auth"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/syncapi/internal/server/sync"
	"github.com/dmitrijs2005/syncapi/internal/wire"
)

func newTestApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	manager := repomanager.NewPostgresRepositoryManager()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	handler := NewHandler(db,
		auth.NewResolver(manager),
		auth.NewAccountService(manager),
		auth.NewPairingService(manager, 6, 10*time.Minute),
		sync.NewService(manager),
		logger)

	app := fiber.New()
	handler.RegisterRoutes(app)
	return app, mock
}

func TestUnknownApplicationIsClientFault(t *testing.T) {
	app, mock := newTestApp(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM applications").
		WillReturnRows(sqlmock.NewRows([]string{"id", "application_id", "name", "application_seed"}))
	mock.ExpectRollback()

	body, err := json.Marshal(&wire.CollectionRequest{
		BaseRequest: wire.BaseRequest{
			UserId:        uuid.New(),
			ApplicationId: "ghost",
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/1.0/collections/sync", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var envelope wire.CollectionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.True(t, envelope.RequestFailed)
	assert.Equal(t, wire.ApiErrorApplicationNotFound, envelope.ApiError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMalformedBody(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("POST", "/1.0/records/sync", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var envelope wire.RecordResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.True(t, envelope.RequestFailed)
}

func TestInternalFailureIsOpaque(t *testing.T) {
	app, mock := newTestApp(t)

	mock.ExpectBegin().WillReturnError(opaqueErr{})

	body, err := json.Marshal(&wire.AuthRequest{
		BaseRequest: wire.BaseRequest{UserId: uuid.New(), ApplicationId: "app"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/1.0/auth/sync", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var envelope wire.AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.True(t, envelope.RequestFailed)
	assert.Equal(t, wire.ApiErrorServerFailure, envelope.ApiError)
	// Internal detail never leaks into the envelope.
	assert.Equal(t, "internal server error", envelope.ServerMessage)
}

type opaqueErr struct{}

func (opaqueErr) Error() string { return "secret database detail" }
