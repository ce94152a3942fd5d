// Package collections persists collections, the grouping entities visible to
// every device of their owning user.
package collections

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, collection *models.Collection) error
	// ListByUser returns every collection of the user, tombstoned ones
	// included; the reconciler needs them to answer Read/ConfirmVersion.
	ListByUser(ctx context.Context, userGUID uuid.UUID) ([]models.Collection, error)
	SetDeleted(ctx context.Context, guid uuid.UUID, deleted bool) error
}
