package applications

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/dmitrijs2005/syncapi/internal/common"
	"github.com/dmitrijs2005/syncapi/internal/dbx"
	"github.com/dmitrijs2005/syncapi/internal/server/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByApplicationID(ctx context.Context, applicationID string) (*models.Application, error) {
	query, args, err := psql.
		Select("id", "application_id", "name", "application_seed").
		From("applications").
		Where(sq.Eq{"application_id": applicationID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building application query: %w", err)
	}

	var app models.Application
	if err := sqlscan.Get(ctx, r.db, &app, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("selecting application: %w", err)
	}
	return &app, nil
}

func (r *PostgresRepository) Ensure(ctx context.Context, app *models.Application) error {
	query, args, err := psql.
		Insert("applications").
		Columns("application_id", "name", "application_seed").
		Values(app.ApplicationID, app.Name, app.ApplicationSeed).
		Suffix("ON CONFLICT (application_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("building application insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting application: %w", err)
	}
	return nil
}
