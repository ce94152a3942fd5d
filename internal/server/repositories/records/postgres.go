package records

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"

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

func (r *PostgresRepository) Insert(ctx context.Context, record *models.Record) error {
	query, args, err := psql.
		Insert("records").
		Columns("guid", "collection_guid", "user_guid", "device_guid", "identifier", "is_deleted").
		Values(record.GUID, record.CollectionGUID, record.UserGUID, record.DeviceGUID,
			record.Identifier, record.IsDeleted).
		ToSql()
	if err != nil {
		return fmt.Errorf("building record insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByCollections(ctx context.Context, collectionGUIDs []uuid.UUID) ([]models.Record, error) {
	if len(collectionGUIDs) == 0 {
		return nil, nil
	}

	query, args, err := psql.
		Select("guid", "collection_guid", "user_guid", "device_guid", "identifier", "is_deleted").
		From("records").
		Where(sq.Eq{"collection_guid": collectionGUIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building record query: %w", err)
	}

	var result []models.Record
	if err := sqlscan.Select(ctx, r.db, &result, query, args...); err != nil {
		return nil, fmt.Errorf("selecting records: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) SetDeleted(ctx context.Context, guid uuid.UUID, deleted bool) error {
	query, args, err := psql.
		Update("records").
		Set("is_deleted", deleted).
		Where(sq.Eq{"guid": guid}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building record update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating record: %w", err)
	}
	return nil
}
