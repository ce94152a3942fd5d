// Package httpapi exposes the sync protocol over HTTP/JSON. Every endpoint
// accepts the common request envelope and runs under one database
// transaction.
package httpapi

import (
	"context"
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/syncapi/internal/common"
	"github.com/dmitrijs2005/syncapi/internal/dbx"
	"github.com/dmitrijs2005/syncapi/internal/logging"
	"github.com/dmitrijs2005/syncapi/internal/server/auth"
	"github.com/dmitrijs2005/syncapi/internal/server/sync"
	"github.com/dmitrijs2005/syncapi/internal/wire"
)

type Handler struct {
	db       *sql.DB
	resolver *auth.Resolver
	account  *auth.AccountService
	pairing  *auth.PairingService
	syncer   *sync.Service
	logger   logging.Logger
}

func NewHandler(db *sql.DB, resolver *auth.Resolver, account *auth.AccountService, pairing *auth.PairingService, syncer *sync.Service, logger logging.Logger) *Handler {
	return &Handler{
		db:       db,
		resolver: resolver,
		account:  account,
		pairing:  pairing,
		syncer:   syncer,
		logger:   logger.With("component", "httpapi"),
	}
}

func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/1.0")
	group.Post("/auth/generate", h.handleGenerateCode)
	group.Post("/auth/use", h.handleUseCode)
	group.Post("/auth/sync", h.handleAuthSync)
	group.Post("/collections/sync", h.handleCollectionSync)
	group.Post("/records/sync", h.handleRecordSync)
}

func (h *Handler) handleAuthSync(c *fiber.Ctx) error {
	var req wire.AuthRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, &wire.AuthResponse{}, common.ErrActionNotSupported)
	}

	var resp *wire.AuthResponse
	err := dbx.WithTx(c.Context(), h.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rc, err := h.resolver.Authorize(ctx, tx, req.BaseRequest)
		if err != nil {
			return err
		}
		resp, err = h.account.Sync(ctx, tx, rc, &req)
		return err
	})
	if err != nil {
		return h.fail(c, &wire.AuthResponse{}, err)
	}
	return c.JSON(resp)
}

func (h *Handler) handleGenerateCode(c *fiber.Ctx) error {
	var req wire.AuthRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, &wire.AuthResponse{}, common.ErrActionNotSupported)
	}

	resp := &wire.AuthResponse{}
	err := dbx.WithTx(c.Context(), h.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rc, err := h.resolver.Authorize(ctx, tx, req.BaseRequest)
		if err != nil {
			return err
		}
		code, err := h.pairing.GenerateCode(ctx, tx, rc)
		if err != nil {
			return err
		}
		resp.ServerMessage = code
		return nil
	})
	if err != nil {
		return h.fail(c, &wire.AuthResponse{}, err)
	}
	return c.JSON(resp)
}

func (h *Handler) handleUseCode(c *fiber.Ctx) error {
	var req wire.AuthRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, &wire.AuthResponse{}, common.ErrActionNotSupported)
	}

	err := dbx.WithTx(c.Context(), h.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rc, err := h.resolver.Authorize(ctx, tx, req.BaseRequest)
		if err != nil {
			return err
		}
		return h.pairing.RedeemCode(ctx, tx, rc, req.ClientMessage)
	})
	if err != nil {
		return h.fail(c, &wire.AuthResponse{}, err)
	}
	return c.JSON(&wire.AuthResponse{})
}

func (h *Handler) handleCollectionSync(c *fiber.Ctx) error {
	var req wire.CollectionRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, &wire.CollectionResponse{}, common.ErrActionNotSupported)
	}

	resp := &wire.CollectionResponse{}
	err := dbx.WithTx(c.Context(), h.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rc, err := h.authenticate(ctx, tx, req.BaseRequest)
		if err != nil {
			return err
		}
		resp.CollectionEntities, err = h.syncer.SyncCollections(ctx, tx, rc, req.CollectionEntities)
		return err
	})
	if err != nil {
		return h.fail(c, &wire.CollectionResponse{}, err)
	}
	return c.JSON(resp)
}

func (h *Handler) handleRecordSync(c *fiber.Ctx) error {
	var req wire.RecordRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, &wire.RecordResponse{}, common.ErrActionNotSupported)
	}

	resp := &wire.RecordResponse{}
	err := dbx.WithTx(c.Context(), h.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rc, err := h.authenticate(ctx, tx, req.BaseRequest)
		if err != nil {
			return err
		}
		resp.CollectionEntities, resp.RecordEntities, err = h.syncer.SyncRecords(ctx, tx, rc, req.CollectionEntities, req.RecordEntities)
		return err
	})
	if err != nil {
		return h.fail(c, &wire.RecordResponse{}, err)
	}
	return c.JSON(resp)
}

func (h *Handler) authenticate(ctx context.Context, tx dbx.DBTX, base wire.BaseRequest) (*auth.RequestContext, error) {
	rc, err := h.resolver.Authorize(ctx, tx, base)
	if err != nil {
		return nil, err
	}
	if err := h.resolver.Authenticate(rc); err != nil {
		return nil, err
	}
	return rc, nil
}

// fail renders an error envelope. Client faults keep their stable code;
// everything else is logged and answered opaquely.
func (h *Handler) fail(c *fiber.Ctx, resp wire.Response, err error) error {
	if common.IsClientFault(err) {
		resp.SetFailure(wire.CodeFor(err), err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	h.logger.Error(c.Context(), "request failed", "path", c.Path(), "error", err.Error())
	resp.SetFailure(wire.ApiErrorServerFailure, "internal server error")
	return c.Status(fiber.StatusInternalServerError).JSON(resp)
}
