package versions

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"

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

func (r *PostgresRepository) Insert(ctx context.Context, version *models.ContentVersion) error {
	query, args, err := psql.
		Insert("content_versions").
		Columns("version_guid", "entity_guid", "content_kind", "content", "create_date_time").
		Values(version.VersionGUID, version.EntityGUID, version.ContentKind,
			version.Content, version.CreateDateTime).
		ToSql()
	if err != nil {
		return fmt.Errorf("building version insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting version: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetActive(ctx context.Context, entityGUID uuid.UUID, kind models.ContentKind) (*models.ContentVersion, error) {
	query, args, err := psql.
		Select("version_guid", "entity_guid", "content_kind", "content", "create_date_time").
		From("content_versions").
		Where(sq.Eq{"entity_guid": entityGUID, "content_kind": kind}).
		OrderBy("create_date_time DESC", "version_guid DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building version query: %w", err)
	}

	var version models.ContentVersion
	if err := sqlscan.Get(ctx, r.db, &version, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("selecting version: %w", err)
	}
	return &version, nil
}
