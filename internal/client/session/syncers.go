package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/wire"
)

// CollectionSyncer sends a repository's batch to the collection endpoint.
type CollectionSyncer struct {
	session *Session
}

func (s *Session) CollectionSyncer() *CollectionSyncer {
	return &CollectionSyncer{session: s}
}

func (cs *CollectionSyncer) Sync(ctx context.Context, entities []wire.Entity) ([]wire.Entity, error) {
	if err := cs.session.EnsureIdentity(ctx); err != nil {
		return nil, err
	}
	base, err := cs.session.BaseRequest(ctx)
	if err != nil {
		return nil, err
	}

	resp := cs.session.api.SyncCollections(ctx, &wire.CollectionRequest{
		BaseRequest:        base,
		CollectionEntities: entities,
	})
	if resp.Failed() {
		return nil, fmt.Errorf("collection sync failed: %s", resp.ServerMessage)
	}
	return resp.CollectionEntities, nil
}

// RecordSyncer sends a repository's batch to the record endpoint, scoping
// every entry to one collection.
type RecordSyncer struct {
	session    *Session
	collection uuid.UUID
}

func (s *Session) RecordSyncer(collection uuid.UUID) *RecordSyncer {
	return &RecordSyncer{session: s, collection: collection}
}

func (rs *RecordSyncer) Sync(ctx context.Context, entities []wire.Entity) ([]wire.Entity, error) {
	if err := rs.session.EnsureIdentity(ctx); err != nil {
		return nil, err
	}
	base, err := rs.session.BaseRequest(ctx)
	if err != nil {
		return nil, err
	}

	for i := range entities {
		if entities[i].CollectionId == uuid.Nil {
			entities[i].CollectionId = rs.collection
		}
	}

	// The collection slot carries a single access confirmation so only this
	// collection's records are reconciled and discovered.
	resp := rs.session.api.SyncRecords(ctx, &wire.RecordRequest{
		BaseRequest: base,
		CollectionEntities: []wire.Entity{{
			Id:           rs.collection,
			OnlineAction: wire.ActionConfirmAccess,
		}},
		RecordEntities: entities,
	})
	if resp.Failed() {
		return nil, fmt.Errorf("record sync failed: %s", resp.ServerMessage)
	}
	for _, coll := range resp.CollectionEntities {
		if coll.Id == rs.collection && coll.OnlineAction == wire.ActionDelete {
			return nil, fmt.Errorf("collection %s is gone", rs.collection)
		}
	}
	return resp.RecordEntities, nil
}
