// Package versions persists the append-only content version ledger.
package versions

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/server/models"
)

type Repository interface {
	// Insert appends one ledger row. Rows are immutable; there is no update
	// or delete.
	Insert(ctx context.Context, version *models.ContentVersion) error
	// GetActive returns the row with the greatest create_date_time for the
	// entity/kind pair, ties broken by version_guid descending, or
	// common.ErrNotFound.
	GetActive(ctx context.Context, entityGUID uuid.UUID, kind models.ContentKind) (*models.ContentVersion, error)
}
