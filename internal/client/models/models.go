// Package models defines the contracts a client-side entity must satisfy to
// be managed by a sync repository, and the bookkeeping kept alongside it.
package models

import (
	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/wire"
)

// SyncModel is implemented by any application entity a repository can sync.
// The repository serializes the whole model into the opaque wire content.
type SyncModel interface {
	GetID() uuid.UUID
	SetID(id uuid.UUID)
	GetIdentifier() string
}

// PendingAction is the queued local change for one entity, applied to the
// server on the next sync.
type PendingAction int

const (
	PendingNone PendingAction = iota
	PendingCreate
	PendingRead
	PendingUpdate
	PendingDelete
)

func (p PendingAction) String() string {
	switch p {
	case PendingNone:
		return "None"
	case PendingCreate:
		return "Create"
	case PendingRead:
		return "Read"
	case PendingUpdate:
		return "Update"
	case PendingDelete:
		return "Delete"
	}
	return "Unknown"
}

// WireAction maps the pending state onto the action sent over the wire.
// An entity with nothing queued still travels as ConfirmVersion so the
// server can report remote changes.
func (p PendingAction) WireAction() wire.OnlineAction {
	switch p {
	case PendingCreate:
		return wire.ActionCreate
	case PendingRead:
		return wire.ActionRead
	case PendingUpdate:
		return wire.ActionUpdate
	case PendingDelete:
		return wire.ActionDelete
	}
	return wire.ActionConfirmVersion
}

// CacheInfo is the sync bookkeeping stored next to each cached model.
type CacheInfo struct {
	ID        uuid.UUID     `json:"id"`
	VersionID uuid.UUID     `json:"version_id"`
	Pending   PendingAction `json:"pending"`
	Deleted   bool          `json:"deleted"`
}
