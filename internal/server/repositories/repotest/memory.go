// Package repotest provides an in-memory RepositoryManager so service tests
// can run without a database.
package repotest

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/syncapi/internal/common"
	"github.com/dmitrijs2005/syncapi/internal/dbx"
	"github.com/dmitrijs2005/syncapi/internal/server/models"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/applications"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/collections"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/devices"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/paircodes"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/records"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/users"
	"github.com/dmitrijs2005/syncapi/internal/server/repositories/versions"
)

// Manager is a RepositoryManager backed by maps. The DBTX argument is
// ignored; all repositories share one state guarded by a single mutex.
type Manager struct {
	mu sync.Mutex

	apps        map[string]*models.Application
	users       map[uuid.UUID]*models.User
	devices     map[uuid.UUID]*models.Device
	collections map[uuid.UUID]*models.Collection
	records     map[uuid.UUID]*models.Record
	versions    []models.ContentVersion
	codes       map[int64]*models.PairingCode
	nextCodeID  int64
}

func NewManager() *Manager {
	return &Manager{
		apps:        make(map[string]*models.Application),
		users:       make(map[uuid.UUID]*models.User),
		devices:     make(map[uuid.UUID]*models.Device),
		collections: make(map[uuid.UUID]*models.Collection),
		records:     make(map[uuid.UUID]*models.Record),
		codes:       make(map[int64]*models.PairingCode),
	}
}

func (m *Manager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *Manager) Applications(db dbx.DBTX) applications.Repository { return appsRepo{m} }
func (m *Manager) Users(db dbx.DBTX) users.Repository               { return usersRepo{m} }
func (m *Manager) Devices(db dbx.DBTX) devices.Repository           { return devicesRepo{m} }
func (m *Manager) Collections(db dbx.DBTX) collections.Repository   { return collectionsRepo{m} }
func (m *Manager) Records(db dbx.DBTX) records.Repository           { return recordsRepo{m} }
func (m *Manager) Versions(db dbx.DBTX) versions.Repository         { return versionsRepo{m} }
func (m *Manager) PairingCodes(db dbx.DBTX) paircodes.Repository    { return codesRepo{m} }

type appsRepo struct{ m *Manager }

func (r appsRepo) GetByApplicationID(ctx context.Context, applicationID string) (*models.Application, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	app, ok := r.m.apps[applicationID]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *app
	return &copied, nil
}

func (r appsRepo) Ensure(ctx context.Context, app *models.Application) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.apps[app.ApplicationID]; ok {
		return nil
	}
	copied := *app
	copied.ID = int64(len(r.m.apps) + 1)
	r.m.apps[app.ApplicationID] = &copied
	return nil
}

type usersRepo struct{ m *Manager }

func (r usersRepo) Get(ctx context.Context, guid uuid.UUID) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user, ok := r.m.users[guid]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r usersRepo) Insert(ctx context.Context, user *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	copied := *user
	r.m.users[user.GUID] = &copied
	return nil
}

func (r usersRepo) SetDeleted(ctx context.Context, guid uuid.UUID, deleted bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user, ok := r.m.users[guid]
	if !ok {
		return common.ErrNotFound
	}
	user.IsDeleted = deleted
	return nil
}

type devicesRepo struct{ m *Manager }

func (r devicesRepo) Get(ctx context.Context, guid uuid.UUID) (*models.Device, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	device, ok := r.m.devices[guid]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *device
	return &copied, nil
}

func (r devicesRepo) Insert(ctx context.Context, device *models.Device) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	copied := *device
	r.m.devices[device.GUID] = &copied
	return nil
}

func (r devicesRepo) CountByUser(ctx context.Context, userGUID uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var count int64
	for _, d := range r.m.devices {
		if d.UserGUID == userGUID && !d.IsDeleted {
			count++
		}
	}
	return count, nil
}

func (r devicesRepo) SetAuthenticated(ctx context.Context, guid uuid.UUID, authenticated bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	device, ok := r.m.devices[guid]
	if !ok {
		return common.ErrNotFound
	}
	device.IsAuthenticated = authenticated
	return nil
}

func (r devicesRepo) SetDeleted(ctx context.Context, guid uuid.UUID, deleted bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	device, ok := r.m.devices[guid]
	if !ok {
		return common.ErrNotFound
	}
	device.IsDeleted = deleted
	return nil
}

type collectionsRepo struct{ m *Manager }

func (r collectionsRepo) Insert(ctx context.Context, collection *models.Collection) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	copied := *collection
	r.m.collections[collection.GUID] = &copied
	return nil
}

func (r collectionsRepo) ListByUser(ctx context.Context, userGUID uuid.UUID) ([]models.Collection, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var result []models.Collection
	for _, c := range r.m.collections {
		if c.UserGUID == userGUID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (r collectionsRepo) SetDeleted(ctx context.Context, guid uuid.UUID, deleted bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	collection, ok := r.m.collections[guid]
	if !ok {
		return common.ErrNotFound
	}
	collection.IsDeleted = deleted
	return nil
}

type recordsRepo struct{ m *Manager }

func (r recordsRepo) Insert(ctx context.Context, record *models.Record) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	copied := *record
	r.m.records[record.GUID] = &copied
	return nil
}

func (r recordsRepo) ListByCollections(ctx context.Context, collectionGUIDs []uuid.UUID) ([]models.Record, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	set := make(map[uuid.UUID]struct{}, len(collectionGUIDs))
	for _, id := range collectionGUIDs {
		set[id] = struct{}{}
	}
	var result []models.Record
	for _, rec := range r.m.records {
		if _, ok := set[rec.CollectionGUID]; ok {
			result = append(result, *rec)
		}
	}
	return result, nil
}

func (r recordsRepo) SetDeleted(ctx context.Context, guid uuid.UUID, deleted bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	record, ok := r.m.records[guid]
	if !ok {
		return common.ErrNotFound
	}
	record.IsDeleted = deleted
	return nil
}

type versionsRepo struct{ m *Manager }

func (r versionsRepo) Insert(ctx context.Context, version *models.ContentVersion) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.versions = append(r.m.versions, *version)
	return nil
}

func (r versionsRepo) GetActive(ctx context.Context, entityGUID uuid.UUID, kind models.ContentKind) (*models.ContentVersion, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var active *models.ContentVersion
	for i := range r.m.versions {
		v := &r.m.versions[i]
		if v.EntityGUID != entityGUID || v.ContentKind != kind {
			continue
		}
		if active == nil ||
			v.CreateDateTime.After(active.CreateDateTime) ||
			(v.CreateDateTime.Equal(active.CreateDateTime) && v.VersionGUID.String() > active.VersionGUID.String()) {
			active = v
		}
	}
	if active == nil {
		return nil, common.ErrNotFound
	}
	copied := *active
	return &copied, nil
}

type codesRepo struct{ m *Manager }

func (r codesRepo) Insert(ctx context.Context, code *models.PairingCode) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextCodeID++
	code.ID = r.m.nextCodeID
	copied := *code
	r.m.codes[code.ID] = &copied
	return nil
}

func (r codesRepo) Find(ctx context.Context, code string, userGUID uuid.UUID) (*models.PairingCode, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.codes {
		if c.Code == code && c.UserGUID == userGUID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r codesRepo) Delete(ctx context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.codes, id)
	return nil
}

func (r codesRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, c := range r.m.codes {
		if c.ValidUntil.Before(now) {
			delete(r.m.codes, id)
		}
	}
	return nil
}
