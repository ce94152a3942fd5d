// Package ledger implements the append-only version ledger, the server-side
// source of truth for what is current.
//
// Every Create/Update appends a new ContentVersion row; rows are never
// mutated or deleted. The active version of an entity is the row with the
// greatest creation time, ties broken by version id in lexicographic order so
// the result does not depend on storage iteration order.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/server/models"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/versions"
)

type Ledger struct {
	versions versions.Repository
	now      func() time.Time
}

func New(repo versions.Repository) *Ledger {
	return &Ledger{versions: repo, now: time.Now}
}

// NewWithClock is used by tests to control creation timestamps.
func NewWithClock(repo versions.Repository, now func() time.Time) *Ledger {
	return &Ledger{versions: repo, now: now}
}

// Append records a new version of the entity's payload and returns the fresh
// version id. A persistence failure is surfaced to the caller, never retried.
func (l *Ledger) Append(ctx context.Context, entityID uuid.UUID, kind models.ContentKind, payload string) (uuid.UUID, error) {
	version := &models.ContentVersion{
		VersionGUID:    uuid.New(),
		EntityGUID:     entityID,
		ContentKind:    kind,
		Content:        payload,
		CreateDateTime: l.now().UTC(),
	}
	if err := l.versions.Insert(ctx, version); err != nil {
		return uuid.Nil, err
	}
	return version.VersionGUID, nil
}

// ActiveVersion is a pure query for the entity's current version. Returns
// common.ErrNotFound when no version was ever appended.
func (l *Ledger) ActiveVersion(ctx context.Context, entityID uuid.UUID, kind models.ContentKind) (*models.ContentVersion, error) {
	return l.versions.GetActive(ctx, entityID, kind)
}
