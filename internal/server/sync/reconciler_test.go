package sync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/syncapi/internal/common"
	"github.com/dmitrijs2005/syncapi/internal/server/auth"
	"github.com/dmitrijs2005/syncapi/internal/server/ledger"
	"github.com/dmitrijs2005/syncapi/internal/server/models"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/repotest"
	"github.com/dmitrijs2005/syncapi/internal/wire"
)

type fixture struct {
	manager    *repotest.Manager
	reconciler *Reconciler
	adapter    *CollectionAdapter
	rc         *auth.RequestContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	manager := repotest.NewManager()

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	led := ledger.NewWithClock(manager.Versions(nil), func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})

	rc := &auth.RequestContext{
		User:   &models.User{GUID: uuid.New()},
		Device: &models.Device{GUID: uuid.New(), IsAuthenticated: true},
	}
	return &fixture{
		manager:    manager,
		reconciler: NewReconciler(led),
		adapter:    NewCollectionAdapter(manager.Collections(nil), rc),
		rc:         rc,
	}
}

func (f *fixture) create(t *testing.T, id uuid.UUID, content string) uuid.UUID {
	t.Helper()
	_, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: id, OnlineAction: wire.ActionCreate, Identifier: "collection", Content: content},
	}, wire.AllSyncActions)
	require.NoError(t, err)

	ver, err := f.manager.Versions(nil).GetActive(context.Background(), id, models.KindCollection)
	require.NoError(t, err)
	return ver.VersionGUID
}

func TestCreateDuplicateSameBatch(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	_, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: id, OnlineAction: wire.ActionCreate},
		{Id: id, OnlineAction: wire.ActionCreate},
	}, wire.AllSyncActions)

	assert.ErrorIs(t, err, common.ErrResourceAlreadyExists)
}

func TestCreateDuplicateLaterBatch(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.create(t, id, "payload")

	_, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: id, OnlineAction: wire.ActionCreate},
	}, wire.AllSyncActions)

	assert.ErrorIs(t, err, common.ErrResourceAlreadyExists)
}

func TestConfirmVersionCurrent(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	version := f.create(t, id, "payload")

	result, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: id, VersionId: version, OnlineAction: wire.ActionConfirmVersion},
	}, wire.AllSyncActions)

	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestConfirmVersionStale(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	stale := f.create(t, id, "old")

	_, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: id, OnlineAction: wire.ActionUpdate, Content: "new"},
	}, wire.AllSyncActions)
	require.NoError(t, err)

	result, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: id, VersionId: stale, OnlineAction: wire.ActionConfirmVersion},
	}, wire.AllSyncActions)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, wire.ActionUpdate, result[0].OnlineAction)
	assert.Equal(t, "new", result[0].Content)
	assert.NotEqual(t, stale, result[0].VersionId)
}

func TestConfirmVersionTombstoned(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	version := f.create(t, id, "payload")

	_, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: id, OnlineAction: wire.ActionDelete},
	}, wire.AllSyncActions)
	require.NoError(t, err)

	// Even a current version id yields a Delete once the entity is gone.
	result, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: id, VersionId: version, OnlineAction: wire.ActionConfirmVersion},
	}, wire.AllSyncActions)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, wire.ActionDelete, result[0].OnlineAction)
	assert.Empty(t, result[0].Content)
}

func TestDeleteThenRead(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.create(t, id, "payload")

	result, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: id, OnlineAction: wire.ActionDelete},
		{Id: id, OnlineAction: wire.ActionRead},
	}, wire.AllSyncActions)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, wire.ActionDelete, result[0].OnlineAction)
}

func TestUpdateResurrectsTombstone(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.create(t, id, "payload")

	_, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: id, OnlineAction: wire.ActionDelete},
	}, wire.AllSyncActions)
	require.NoError(t, err)

	_, err = f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: id, OnlineAction: wire.ActionUpdate, Content: "revived"},
	}, wire.AllSyncActions)
	require.NoError(t, err)

	result, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: id, OnlineAction: wire.ActionRead},
	}, wire.AllSyncActions)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, wire.ActionRead, result[0].OnlineAction)
	assert.Equal(t, "revived", result[0].Content)
}

func TestUpdateUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: uuid.New(), OnlineAction: wire.ActionUpdate},
	}, wire.AllSyncActions)

	assert.ErrorIs(t, err, common.ErrResourceNotFound)
}

func TestActionOutsideAllowedSet(t *testing.T) {
	f := newFixture(t)

	_, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: uuid.New(), OnlineAction: wire.ActionConfirmAccess},
	}, wire.AllSyncActions)

	assert.ErrorIs(t, err, common.ErrActionProhibited)
}

func TestNoneEntriesAreSkipped(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.create(t, id, "payload")

	result, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: id, OnlineAction: wire.ActionNone},
	}, wire.AllSyncActions)

	// Mentioned but untouched: no action applied, no discovery either.
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestDiscoveryExactlyOnce(t *testing.T) {
	f := newFixture(t)
	known := uuid.New()
	unseen := uuid.New()
	gone := uuid.New()
	f.create(t, known, "known")
	f.create(t, unseen, "unseen")
	f.create(t, gone, "gone")

	_, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: gone, OnlineAction: wire.ActionDelete},
	}, wire.AllSyncActions)
	require.NoError(t, err)

	result, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: known, OnlineAction: wire.ActionNone},
	}, wire.AllSyncActions)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, unseen, result[0].Id)
	assert.Equal(t, wire.ActionCreate, result[0].OnlineAction)
	assert.Equal(t, "unseen", result[0].Content)
}

func TestDiscoverySeesBatchCreates(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	// An entity created earlier in the same batch counts as submitted and
	// must not be discovered back to its creator.
	result, err := f.reconciler.Sync(context.Background(), f.adapter, []wire.Entity{
		{Id: id, OnlineAction: wire.ActionCreate, Content: "fresh"},
	}, wire.AllSyncActions)

	require.NoError(t, err)
	assert.Empty(t, result)
}
