package sync

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/common"
	"github.com/dmitrijs2005/syncapi/internal/dbx"
	"github.com/dmitrijs2005/syncapi/internal/server/auth"
	"github.com/dmitrijs2005/syncapi/internal/server/ledger"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/syncapi/internal/wire"
)

// Service wires the generic reconciler to the concrete entity kinds.
type Service struct {
	manager repomanager.RepositoryManager
}

func NewService(manager repomanager.RepositoryManager) *Service {
	return &Service{manager: manager}
}

// SyncCollections reconciles the caller's collection batch.
func (s *Service) SyncCollections(ctx context.Context, tx dbx.DBTX, rc *auth.RequestContext, entries []wire.Entity) ([]wire.Entity, error) {
	rec := NewReconciler(ledger.New(s.manager.Versions(tx)))
	adapter := NewCollectionAdapter(s.manager.Collections(tx), rc)
	return rec.Sync(ctx, adapter, entries, wire.AllSyncActions)
}

// SyncRecords reconciles the caller's record batch. The collection slot of
// the request may only carry ConfirmAccess entries; each one either scopes
// the visible record set or, when the collection is gone, yields a
// Delete-tagged collection entry so the device can drop it wholesale.
func (s *Service) SyncRecords(ctx context.Context, tx dbx.DBTX, rc *auth.RequestContext, collectionEntries, recordEntries []wire.Entity) (collOut, recOut []wire.Entity, err error) {
	all, err := s.manager.Collections(tx).ListByUser(ctx, rc.User.GUID)
	if err != nil {
		return nil, nil, err
	}

	var confirmed []uuid.UUID
	if len(collectionEntries) == 0 {
		// No explicit access confirmation: every known collection is in scope.
		for i := range all {
			confirmed = append(confirmed, all[i].GUID)
		}
	} else {
		for _, ce := range collectionEntries {
			if ce.OnlineAction != wire.ActionConfirmAccess {
				return nil, nil, common.ErrActionProhibited
			}
			var found bool
			for i := range all {
				if all[i].GUID == ce.Id {
					if !all[i].IsDeleted {
						confirmed = append(confirmed, ce.Id)
						found = true
					}
					break
				}
			}
			if !found {
				collOut = append(collOut, wire.Entity{
					Id:           ce.Id,
					OnlineAction: wire.ActionDelete,
				})
			}
		}
	}

	rec := NewReconciler(ledger.New(s.manager.Versions(tx)))
	adapter := NewRecordAdapter(s.manager.Records(tx), rc, confirmed)
	recOut, err = rec.Sync(ctx, adapter, recordEntries, wire.AllSyncActions)
	if err != nil {
		return nil, nil, err
	}
	return collOut, recOut, nil
}
