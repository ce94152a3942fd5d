package sync

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/common"
	"github.com/dmitrijs2005/syncapi/internal/server/auth"
	"github.com/dmitrijs2005/syncapi/internal/server/models"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/collections"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/records"
	"github.com/dmitrijs2005/syncapi/internal/wire"
)

// CollectionAdapter exposes collections to the reconciler. Visibility is by
// owning user: every device of a user sees all of the user's collections.
type CollectionAdapter struct {
	repo collections.Repository
	rc   *auth.RequestContext
}

func NewCollectionAdapter(repo collections.Repository, rc *auth.RequestContext) *CollectionAdapter {
	return &CollectionAdapter{repo: repo, rc: rc}
}

func (a *CollectionAdapter) Kind() models.ContentKind { return models.KindCollection }

func (a *CollectionAdapter) ListVisible(ctx context.Context) (map[uuid.UUID]models.SyncEntity, error) {
	list, err := a.repo.ListByUser(ctx, a.rc.User.GUID)
	if err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]models.SyncEntity, len(list))
	for i := range list {
		result[list[i].GUID] = &list[i]
	}
	return result, nil
}

func (a *CollectionAdapter) Construct(entry wire.Entity) (models.SyncEntity, error) {
	return &models.Collection{
		GUID:       entry.Id,
		UserGUID:   a.rc.User.GUID,
		DeviceGUID: a.rc.Device.GUID,
		Identifier: entry.Identifier,
	}, nil
}

func (a *CollectionAdapter) Insert(ctx context.Context, entity models.SyncEntity) error {
	return a.repo.Insert(ctx, entity.(*models.Collection))
}

func (a *CollectionAdapter) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	return a.repo.SetDeleted(ctx, id, deleted)
}

// RecordAdapter exposes leaf records. Visibility is scoped to the collection
// set the request confirmed access to.
type RecordAdapter struct {
	repo        records.Repository
	rc          *auth.RequestContext
	collections map[uuid.UUID]struct{}
}

func NewRecordAdapter(repo records.Repository, rc *auth.RequestContext, collectionGUIDs []uuid.UUID) *RecordAdapter {
	set := make(map[uuid.UUID]struct{}, len(collectionGUIDs))
	for _, id := range collectionGUIDs {
		set[id] = struct{}{}
	}
	return &RecordAdapter{repo: repo, rc: rc, collections: set}
}

func (a *RecordAdapter) Kind() models.ContentKind { return models.KindRecord }

func (a *RecordAdapter) ListVisible(ctx context.Context) (map[uuid.UUID]models.SyncEntity, error) {
	guids := make([]uuid.UUID, 0, len(a.collections))
	for id := range a.collections {
		guids = append(guids, id)
	}
	list, err := a.repo.ListByCollections(ctx, guids)
	if err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]models.SyncEntity, len(list))
	for i := range list {
		result[list[i].GUID] = &list[i]
	}
	return result, nil
}

func (a *RecordAdapter) Construct(entry wire.Entity) (models.SyncEntity, error) {
	if _, ok := a.collections[entry.CollectionId]; !ok {
		return nil, common.ErrResourceNotFound
	}
	return &models.Record{
		GUID:           entry.Id,
		CollectionGUID: entry.CollectionId,
		UserGUID:       a.rc.User.GUID,
		DeviceGUID:     a.rc.Device.GUID,
		Identifier:     entry.Identifier,
	}, nil
}

func (a *RecordAdapter) Insert(ctx context.Context, entity models.SyncEntity) error {
	return a.repo.Insert(ctx, entity.(*models.Record))
}

func (a *RecordAdapter) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	return a.repo.SetDeleted(ctx, id, deleted)
}
