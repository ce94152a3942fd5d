// Package paircodes persists short-lived one-time pairing codes.
package paircodes

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, code *models.PairingCode) error
	// Find returns the stored code matching the code string and user, or
	// common.ErrNotFound. Expired rows must be swept before calling.
	Find(ctx context.Context, code string, userGUID uuid.UUID) (*models.PairingCode, error)
	Delete(ctx context.Context, id int64) error
	// DeleteExpired removes every code whose validity window closed before now.
	DeleteExpired(ctx context.Context, now time.Time) error
}
