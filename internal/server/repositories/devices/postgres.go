package devices

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

func (r *PostgresRepository) Get(ctx context.Context, guid uuid.UUID) (*models.Device, error) {
	query, args, err := psql.
		Select("guid", "user_guid", "identifier", "is_authenticated", "is_deleted").
		From("devices").
		Where(sq.Eq{"guid": guid}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building device query: %w", err)
	}

	var device models.Device
	if err := sqlscan.Get(ctx, r.db, &device, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("selecting device: %w", err)
	}
	return &device, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, device *models.Device) error {
	query, args, err := psql.
		Insert("devices").
		Columns("guid", "user_guid", "identifier", "is_authenticated", "is_deleted").
		Values(device.GUID, device.UserGUID, device.Identifier, device.IsAuthenticated, device.IsDeleted).
		ToSql()
	if err != nil {
		return fmt.Errorf("building device insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting device: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userGUID uuid.UUID) (int64, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("devices").
		Where(sq.Eq{"user_guid": userGUID, "is_deleted": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building device count: %w", err)
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting devices: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) SetAuthenticated(ctx context.Context, guid uuid.UUID, authenticated bool) error {
	return r.setFlag(ctx, guid, "is_authenticated", authenticated)
}

func (r *PostgresRepository) SetDeleted(ctx context.Context, guid uuid.UUID, deleted bool) error {
	return r.setFlag(ctx, guid, "is_deleted", deleted)
}

func (r *PostgresRepository) setFlag(ctx context.Context, guid uuid.UUID, column string, value bool) error {
	query, args, err := psql.
		Update("devices").
		Set(column, value).
		Where(sq.Eq{"guid": guid}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building device update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating device: %w", err)
	}
	return nil
}
