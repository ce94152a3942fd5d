package users

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

func (r *PostgresRepository) Get(ctx context.Context, guid uuid.UUID) (*models.User, error) {
	query, args, err := psql.
		Select("guid", "identifier", "application_id", "personal_seed", "is_deleted").
		From("users").
		Where(sq.Eq{"guid": guid}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building user query: %w", err)
	}

	var user models.User
	if err := sqlscan.Get(ctx, r.db, &user, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("selecting user: %w", err)
	}
	return &user, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, user *models.User) error {
	query, args, err := psql.
		Insert("users").
		Columns("guid", "identifier", "application_id", "personal_seed", "is_deleted").
		Values(user.GUID, user.Identifier, user.ApplicationID, user.PersonalSeed, user.IsDeleted).
		ToSql()
	if err != nil {
		return fmt.Errorf("building user insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetDeleted(ctx context.Context, guid uuid.UUID, deleted bool) error {
	query, args, err := psql.
		Update("users").
		Set("is_deleted", deleted).
		Where(sq.Eq{"guid": guid}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building user update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}
