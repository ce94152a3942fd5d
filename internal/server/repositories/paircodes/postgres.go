package paircodes

import (
	"context"
	"fmt"
	"time"

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

func (r *PostgresRepository) Insert(ctx context.Context, code *models.PairingCode) error {
	query, args, err := psql.
		Insert("pairing_codes").
		Columns("user_guid", "code", "valid_until").
		Values(code.UserGUID, code.Code, code.ValidUntil).
		ToSql()
	if err != nil {
		return fmt.Errorf("building pairing code insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting pairing code: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, code string, userGUID uuid.UUID) (*models.PairingCode, error) {
	query, args, err := psql.
		Select("id", "user_guid", "code", "valid_until").
		From("pairing_codes").
		Where(sq.Eq{"code": code, "user_guid": userGUID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building pairing code query: %w", err)
	}

	var pc models.PairingCode
	if err := sqlscan.Get(ctx, r.db, &pc, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("selecting pairing code: %w", err)
	}
	return &pc, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := psql.
		Delete("pairing_codes").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building pairing code delete: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting pairing code: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) error {
	query, args, err := psql.
		Delete("pairing_codes").
		Where(sq.Lt{"valid_until": now}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building expired code delete: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting expired codes: %w", err)
	}
	return nil
}
