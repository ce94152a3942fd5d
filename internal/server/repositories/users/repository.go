// Package users persists user accounts. Users are tombstoned, never
// physically removed.
package users

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, guid uuid.UUID) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
	SetDeleted(ctx context.Context, guid uuid.UUID, deleted bool) error
}
