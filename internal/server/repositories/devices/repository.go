// Package devices persists the devices registered for a user account.
package devices

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, guid uuid.UUID) (*models.Device, error)
	Insert(ctx context.Context, device *models.Device) error
	// CountByUser counts non-deleted devices of a user; a count of zero means
	// the next created device is the account's first and is auto-authenticated.
	CountByUser(ctx context.Context, userGUID uuid.UUID) (int64, error)
	SetAuthenticated(ctx context.Context, guid uuid.UUID, authenticated bool) error
	SetDeleted(ctx context.Context, guid uuid.UUID, deleted bool) error
}
