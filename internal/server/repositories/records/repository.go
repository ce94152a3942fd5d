// Package records persists leaf records, the innermost sync entities.
package records

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, record *models.Record) error
	// ListByCollections returns every record belonging to the given
	// collections, tombstoned ones included.
	ListByCollections(ctx context.Context, collectionGUIDs []uuid.UUID) ([]models.Record, error)
	SetDeleted(ctx context.Context, guid uuid.UUID, deleted bool) error
}
