// Package applications stores the registered consuming applications and
// their shared authorization seeds.
package applications

import (
	"context"

	"github.com/dmitrijs2005/syncapi/internal/server/models"
)

type Repository interface {
	// GetByApplicationID returns the application registered under the given
	// public id, or common.ErrNotFound.
	GetByApplicationID(ctx context.Context, applicationID string) (*models.Application, error)
	// Ensure registers the application unless one with the same public id
	// already exists.
	Ensure(ctx context.Context, app *models.Application) error
}
