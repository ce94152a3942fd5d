// Package sync implements the server side of the optimistic
// version-reconciliation protocol: one generic reconciler parameterized by a
// small per-kind capability contract.
package sync

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/common"
	"github.com/dmitrijs2005/syncapi/internal/server/ledger"
	"github.com/dmitrijs2005/syncapi/internal/server/models"
	"github.com/dmitrijs2005/syncapi/internal/wire"
)

// KindAdapter is implemented once per entity kind. An adapter is constructed
// per request and carries its transaction and request context internally.
type KindAdapter interface {
	Kind() models.ContentKind
	// ListVisible returns every entity the caller may see, keyed by id,
	// tombstoned entities included.
	ListVisible(ctx context.Context) (map[uuid.UUID]models.SyncEntity, error)
	// Construct builds a new, not yet persisted entity from a Create entry.
	Construct(entry wire.Entity) (models.SyncEntity, error)
	Insert(ctx context.Context, entity models.SyncEntity) error
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error
}

// Reconciler applies one submitted batch against the version ledger and
// computes the response batch, including discovery of unseen entities.
type Reconciler struct {
	ledger *ledger.Ledger
}

func NewReconciler(led *ledger.Ledger) *Reconciler {
	return &Reconciler{ledger: led}
}

// Sync processes entries strictly in submission order, then appends one
// Create-tagged response entry for every visible, non-tombstoned entity the
// caller did not mention. Cross-batch races are resolved purely by version-id
// comparison in ConfirmVersion, never by client timestamps.
func (r *Reconciler) Sync(ctx context.Context, adapter KindAdapter, entries []wire.Entity, allowed []wire.OnlineAction) ([]wire.Entity, error) {
	var result []wire.Entity
	submitted := make(map[uuid.UUID]struct{}, len(entries))

	// The visible set is loaded once, on first need.
	var visible map[uuid.UUID]models.SyncEntity
	getVisible := func() (map[uuid.UUID]models.SyncEntity, error) {
		if visible == nil {
			v, err := adapter.ListVisible(ctx)
			if err != nil {
				return nil, err
			}
			if v == nil {
				v = map[uuid.UUID]models.SyncEntity{}
			}
			visible = v
		}
		return visible, nil
	}

	for _, entry := range entries {
		submitted[entry.Id] = struct{}{}
		if entry.OnlineAction == wire.ActionNone {
			continue
		}
		if !actionAllowed(entry.OnlineAction, allowed) {
			return nil, common.ErrActionProhibited
		}

		vis, err := getVisible()
		if err != nil {
			return nil, err
		}
		entity := vis[entry.Id]

		switch entry.OnlineAction {
		case wire.ActionCreate:
			if entity != nil {
				return nil, common.ErrResourceAlreadyExists
			}
			created, err := adapter.Construct(entry)
			if err != nil {
				return nil, err
			}
			created.SetDeleted(false)
			if err := adapter.Insert(ctx, created); err != nil {
				return nil, err
			}
			// Later entries of the same batch see the new entity.
			vis[entry.Id] = created
			if _, err := r.ledger.Append(ctx, entry.Id, adapter.Kind(), entry.Content); err != nil {
				return nil, err
			}

		case wire.ActionUpdate:
			if entity == nil {
				return nil, common.ErrResourceNotFound
			}
			if entity.Deleted() {
				if err := adapter.SetDeleted(ctx, entry.Id, false); err != nil {
					return nil, err
				}
				entity.SetDeleted(false)
			}
			if _, err := r.ledger.Append(ctx, entry.Id, adapter.Kind(), entry.Content); err != nil {
				return nil, err
			}

		case wire.ActionDelete:
			if entity == nil {
				return nil, common.ErrResourceNotFound
			}
			if err := adapter.SetDeleted(ctx, entry.Id, true); err != nil {
				return nil, err
			}
			entity.SetDeleted(true)

		case wire.ActionRead:
			if entity == nil {
				return nil, common.ErrResourceNotFound
			}
			ver, err := r.activeVersion(ctx, entity, adapter.Kind())
			if err != nil {
				return nil, err
			}
			if entity.Deleted() {
				result = append(result, responseEntity(entity, ver, wire.ActionDelete))
			} else {
				result = append(result, responseEntity(entity, ver, wire.ActionRead))
			}

		case wire.ActionConfirmVersion:
			if entity == nil {
				return nil, common.ErrResourceNotFound
			}
			ver, err := r.activeVersion(ctx, entity, adapter.Kind())
			if err != nil {
				return nil, err
			}
			switch {
			case entity.Deleted():
				result = append(result, responseEntity(entity, ver, wire.ActionDelete))
			case ver != nil && ver.VersionGUID != entry.VersionId:
				result = append(result, responseEntity(entity, ver, wire.ActionUpdate))
			default:
				// Caller is current; the common fast path emits nothing.
			}

		default:
			return nil, common.ErrActionNotSupported
		}
	}

	vis, err := getVisible()
	if err != nil {
		return nil, err
	}
	discovered, err := r.discover(ctx, adapter, vis, submitted)
	if err != nil {
		return nil, err
	}
	return append(result, discovered...), nil
}

// discover surfaces visible entities the caller never mentioned. Tombstoned
// entities are skipped: a device that never knew an entity does not need to
// learn of its deletion.
func (r *Reconciler) discover(ctx context.Context, adapter KindAdapter, visible map[uuid.UUID]models.SyncEntity, submitted map[uuid.UUID]struct{}) ([]wire.Entity, error) {
	ids := make([]uuid.UUID, 0, len(visible))
	for id := range visible {
		if _, ok := submitted[id]; ok {
			continue
		}
		if visible[id].Deleted() {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var result []wire.Entity
	for _, id := range ids {
		ver, err := r.activeVersion(ctx, visible[id], adapter.Kind())
		if err != nil {
			return nil, err
		}
		out := responseEntity(visible[id], ver, wire.ActionCreate)
		out.Content = contentOf(ver)
		result = append(result, out)
	}
	return result, nil
}

func (r *Reconciler) activeVersion(ctx context.Context, entity models.SyncEntity, kind models.ContentKind) (*models.ContentVersion, error) {
	ver, err := r.ledger.ActiveVersion(ctx, entity.EntityID(), kind)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ver, nil
}

func actionAllowed(action wire.OnlineAction, allowed []wire.OnlineAction) bool {
	for _, a := range allowed {
		if a == action {
			return true
		}
	}
	return false
}

// responseEntity renders one response entry. Payload content is only carried
// for actions where the caller does not already have it.
func responseEntity(entity models.SyncEntity, ver *models.ContentVersion, action wire.OnlineAction) wire.Entity {
	out := wire.Entity{
		Id:           entity.EntityID(),
		Identifier:   entity.EntityIdentifier(),
		OnlineAction: action,
	}
	if ver != nil {
		out.VersionId = ver.VersionGUID
		out.CreateDateTime = ver.CreateDateTime
		if action == wire.ActionRead || action == wire.ActionUpdate {
			out.Content = ver.Content
		}
	}
	switch t := entity.(type) {
	case *models.Device:
		out.UserId = t.UserGUID
	case *models.Collection:
		out.UserId = t.UserGUID
		out.DeviceId = t.DeviceGUID
	case *models.Record:
		out.UserId = t.UserGUID
		out.DeviceId = t.DeviceGUID
		out.CollectionId = t.CollectionGUID
	}
	return out
}

func contentOf(ver *models.ContentVersion) string {
	if ver == nil {
		return ""
	}
	return ver.Content
}
