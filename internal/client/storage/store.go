// Package storage persists the client cache in a local SQLite database:
// one row per entity kind holding the serialized model set, plus a small
// key/value table for identity and the message counter.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/syncapi/internal/common"
)

//go:embed migrations/*.sql
var migrations embed.FS

const counterKey = "message_counter"

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database and applies migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return nil, fmt.Errorf("migrating cache db: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// LoadKind returns the serialized cache for one entity kind, or
// common.ErrNotFound if this kind has never been saved.
func (s *Store) LoadKind(ctx context.Context, kind string) ([]byte, error) {
	query, args, err := sq.Select("data").From("cache_entries").
		Where(sq.Eq{"kind": kind}).ToSql()
	if err != nil {
		return nil, err
	}

	var data []byte
	if err := sqlscan.Get(ctx, s.db, &data, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("loading cache for %s: %w", kind, err)
	}
	return data, nil
}

// SaveKind replaces the serialized cache for one entity kind as a unit.
func (s *Store) SaveKind(ctx context.Context, kind string, data []byte) error {
	query, args, err := sq.Insert("cache_entries").
		Columns("kind", "data").
		Values(kind, data).
		Suffix("ON CONFLICT (kind) DO UPDATE SET data = excluded.data").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving cache for %s: %w", kind, err)
	}
	return nil
}

// EraseKind drops the cache for one entity kind.
func (s *Store) EraseKind(ctx context.Context, kind string) error {
	query, args, err := sq.Delete("cache_entries").Where(sq.Eq{"kind": kind}).ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("erasing cache for %s: %w", kind, err)
	}
	return nil
}

// GetValue returns a stored state value, or common.ErrNotFound.
func (s *Store) GetValue(ctx context.Context, key string) (string, error) {
	query, args, err := sq.Select("value").From("client_state").
		Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return "", err
	}

	var value string
	if err := sqlscan.Get(ctx, s.db, &value, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("loading state %s: %w", key, err)
	}
	return value, nil
}

// SetValue stores a state value, replacing any previous one.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	query, args, err := sq.Insert("client_state").
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving state %s: %w", key, err)
	}
	return nil
}

// NextCounter increments the persistent message counter and returns the new
// value. The counter survives restarts so authorization tokens never repeat.
func (s *Store) NextCounter(ctx context.Context) (int64, error) {
	current, err := s.GetValue(ctx, counterKey)
	if err != nil {
		if err != common.ErrNotFound {
			return 0, err
		}
		current = "0"
	}

	n, err := strconv.ParseInt(current, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt message counter %q: %w", current, err)
	}

	n++
	if err := s.SetValue(ctx, counterKey, strconv.FormatInt(n, 10)); err != nil {
		return 0, err
	}
	return n, nil
}
