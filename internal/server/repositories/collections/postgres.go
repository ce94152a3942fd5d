package collections

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

func (r *PostgresRepository) Insert(ctx context.Context, collection *models.Collection) error {
	query, args, err := psql.
		Insert("collections").
		Columns("guid", "user_guid", "device_guid", "identifier", "is_deleted").
		Values(collection.GUID, collection.UserGUID, collection.DeviceGUID,
			collection.Identifier, collection.IsDeleted).
		ToSql()
	if err != nil {
		return fmt.Errorf("building collection insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting collection: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userGUID uuid.UUID) ([]models.Collection, error) {
	query, args, err := psql.
		Select("guid", "user_guid", "device_guid", "identifier", "is_deleted").
		From("collections").
		Where(sq.Eq{"user_guid": userGUID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building collection query: %w", err)
	}

	var result []models.Collection
	if err := sqlscan.Select(ctx, r.db, &result, query, args...); err != nil {
		return nil, fmt.Errorf("selecting collections: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) SetDeleted(ctx context.Context, guid uuid.UUID, deleted bool) error {
	query, args, err := psql.
		Update("collections").
		Set("is_deleted", deleted).
		Where(sq.Eq{"guid": guid}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building collection update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating collection: %w", err)
	}
	return nil
}
