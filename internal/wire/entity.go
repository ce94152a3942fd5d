// Package wire defines the JSON envelope and entry types exchanged between
// devices and the server. Field names follow the published API contract and
// must stay stable.
package wire

import (
	"time"

	"github.com/google/uuid"
)

// OnlineAction describes what the sender wants done with one entity slot.
type OnlineAction int

const (
	ActionNone OnlineAction = iota
	ActionCreate
	ActionRead
	ActionUpdate
	ActionDelete
	ActionConfirmVersion
	ActionConfirmAccess
)

// AllSyncActions is the default allowed-action set for sync endpoints.
var AllSyncActions = []OnlineAction{
	ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionConfirmVersion,
}

func (a OnlineAction) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionCreate:
		return "Create"
	case ActionRead:
		return "Read"
	case ActionUpdate:
		return "Update"
	case ActionDelete:
		return "Delete"
	case ActionConfirmVersion:
		return "ConfirmVersion"
	case ActionConfirmAccess:
		return "ConfirmAccess"
	}
	return "Unknown"
}

// Entity is one batch entry. Content is an opaque serialized blob; the server
// stores and returns it without inspecting it.
//
// UserId, DeviceId and CollectionId are only populated for the entity kinds
// that carry them (device, collection, record).
type Entity struct {
	Id             uuid.UUID    `json:"Id"`
	VersionId      uuid.UUID    `json:"VersionId"`
	Identifier     string       `json:"Identifier"`
	OnlineAction   OnlineAction `json:"OnlineAction"`
	Content        string       `json:"Content"`
	CreateDateTime time.Time    `json:"CreateDateTime"`
	UserId         uuid.UUID    `json:"UserId,omitempty"`
	DeviceId       uuid.UUID    `json:"DeviceId,omitempty"`
	CollectionId   uuid.UUID    `json:"CollectionId,omitempty"`
}
