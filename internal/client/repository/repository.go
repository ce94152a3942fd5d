// Package repository keeps a local, offline-first set of entities of one
// kind and reconciles it with the server on demand. Local edits queue a
// pending action per entity; Sync sends the whole set in one batch and
// applies the server's verdict.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/syncapi/internal/client/models"
	"github.com/dmitrijs2005/syncapi/internal/client/storage"
	"github.com/dmitrijs2005/syncapi/internal/common"
	"github.com/dmitrijs2005/syncapi/internal/logging"
	"github.com/dmitrijs2005/syncapi/internal/wire"
)

// Transport is the network leg of one sync exchange. An error means the
// batch was not applied and local pending state must stay untouched.
type Transport interface {
	Sync(ctx context.Context, entities []wire.Entity) ([]wire.Entity, error)
}

type entry[T models.SyncModel] struct {
	Info  models.CacheInfo
	Model T
}

// storedEntry is the persisted form; the model stays raw until the caller's
// concrete type is known.
type storedEntry struct {
	Info  models.CacheInfo `json:"info"`
	Model json.RawMessage  `json:"model"`
}

type cacheFile struct {
	Entries []storedEntry `json:"entries"`
}

type Repository[T models.SyncModel] struct {
	kind      string
	newModel  func() T
	store     *storage.Store
	transport Transport
	logger    logging.Logger

	mu      sync.Mutex
	loaded  bool
	entries map[uuid.UUID]*entry[T]

	group singleflight.Group

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

// New builds a repository for one entity kind. newModel constructs an empty
// model for deserialization; kind names the cache slot and must be unique
// per store.
func New[T models.SyncModel](kind string, newModel func() T, store *storage.Store, transport Transport, logger logging.Logger) *Repository[T] {
	return &Repository[T]{
		kind:      kind,
		newModel:  newModel,
		store:     store,
		transport: transport,
		logger:    logger.With("component", "repository", "kind", kind),
		entries:   make(map[uuid.UUID]*entry[T]),
		subs:      make(map[chan struct{}]struct{}),
	}
}

// init lazily loads the cache slot, creating it on first use.
func (r *Repository[T]) init(ctx context.Context) error {
	if r.loaded {
		return nil
	}

	data, err := r.store.LoadKind(ctx, r.kind)
	if err != nil {
		if err != common.ErrNotFound {
			return err
		}
		if err := r.persist(ctx); err != nil {
			return err
		}
		r.loaded = true
		return nil
	}

	var file cacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("corrupt cache for %s: %w", r.kind, err)
	}
	for _, se := range file.Entries {
		m := r.newModel()
		if err := json.Unmarshal(se.Model, m); err != nil {
			return fmt.Errorf("corrupt cached model for %s: %w", r.kind, err)
		}
		r.entries[se.Info.ID] = &entry[T]{Info: se.Info, Model: m}
	}
	r.loaded = true
	return nil
}

func (r *Repository[T]) persist(ctx context.Context) error {
	file := cacheFile{Entries: make([]storedEntry, 0, len(r.entries))}
	for _, e := range r.entries {
		raw, err := json.Marshal(e.Model)
		if err != nil {
			return fmt.Errorf("serializing model %s: %w", e.Info.ID, err)
		}
		file.Entries = append(file.Entries, storedEntry{Info: e.Info, Model: raw})
	}
	sort.Slice(file.Entries, func(i, j int) bool {
		return file.Entries[i].Info.ID.String() < file.Entries[j].Info.ID.String()
	})

	data, err := json.Marshal(file)
	if err != nil {
		return err
	}
	return r.store.SaveKind(ctx, r.kind, data)
}

// Save stores a model locally and queues it for the next sync. A model
// without an id gets one minted; an entity still pending Create stays a
// Create with a bumped version, everything else becomes an Update.
func (r *Repository[T]) Save(ctx context.Context, model T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.init(ctx); err != nil {
		return err
	}

	if model.GetID() == uuid.Nil {
		model.SetID(uuid.New())
	}
	id := model.GetID()

	e, ok := r.entries[id]
	switch {
	case !ok:
		r.entries[id] = &entry[T]{
			Info:  models.CacheInfo{ID: id, VersionID: uuid.New(), Pending: models.PendingCreate},
			Model: model,
		}
	case e.Info.Pending == models.PendingCreate:
		e.Info.VersionID = uuid.New()
		e.Model = model
	default:
		e.Info.Pending = models.PendingUpdate
		e.Info.VersionID = uuid.New()
		e.Info.Deleted = false
		e.Model = model
	}

	return r.persist(ctx)
}

// Remove queues a deletion. An entity that was never synced is purged
// outright and never reaches the server; removing an already-pending
// deletion is a no-op.
func (r *Repository[T]) Remove(ctx context.Context, model T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.init(ctx); err != nil {
		return err
	}

	e, ok := r.entries[model.GetID()]
	if !ok {
		return nil
	}
	if e.Info.Pending == models.PendingCreate {
		delete(r.entries, model.GetID())
	} else {
		e.Info.Pending = models.PendingDelete
	}

	return r.persist(ctx)
}

// Get returns one live entity by id, or common.ErrNotFound.
func (r *Repository[T]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	if err := r.init(ctx); err != nil {
		return zero, err
	}

	e, ok := r.entries[id]
	if !ok || e.Info.Deleted || e.Info.Pending == models.PendingDelete {
		return zero, common.ErrNotFound
	}
	return e.Model, nil
}

// GetAll returns every live entity, ordered by identifier then id.
func (r *Repository[T]) GetAll(ctx context.Context) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.init(ctx); err != nil {
		return nil, err
	}

	result := make([]T, 0, len(r.entries))
	for _, e := range r.entries {
		if e.Info.Deleted || e.Info.Pending == models.PendingDelete {
			continue
		}
		result = append(result, e.Model)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].GetIdentifier() != result[j].GetIdentifier() {
			return result[i].GetIdentifier() < result[j].GetIdentifier()
		}
		return result[i].GetID().String() < result[j].GetID().String()
	})
	return result, nil
}

// Sync reconciles the local set with the server. Concurrent callers share
// one in-flight exchange per kind; all of them receive its result. On
// failure every pending action is left untouched, so the next call is a
// safe retry.
func (r *Repository[T]) Sync(ctx context.Context) error {
	_, err, _ := r.group.Do(r.kind, func() (any, error) {
		return nil, r.doSync(ctx)
	})
	return err
}

// submitted records what one batch claimed for an entity, so the response
// only clears pending state the exchange actually covered.
type submitted struct {
	pending models.PendingAction
	version uuid.UUID
}

func (r *Repository[T]) doSync(ctx context.Context) error {
	r.mu.Lock()
	if err := r.init(ctx); err != nil {
		r.mu.Unlock()
		return err
	}

	batch := make([]wire.Entity, 0, len(r.entries))
	sent := make(map[uuid.UUID]submitted, len(r.entries))
	for id, e := range r.entries {
		if e.Info.Deleted {
			continue
		}
		ent := wire.Entity{
			Id:             id,
			VersionId:      e.Info.VersionID,
			Identifier:     e.Model.GetIdentifier(),
			OnlineAction:   e.Info.Pending.WireAction(),
			CreateDateTime: time.Now().UTC(),
		}
		if e.Info.Pending == models.PendingCreate || e.Info.Pending == models.PendingUpdate {
			raw, err := json.Marshal(e.Model)
			if err != nil {
				r.mu.Unlock()
				return fmt.Errorf("serializing model %s: %w", id, err)
			}
			ent.Content = string(raw)
		}
		batch = append(batch, ent)
		sent[id] = submitted{pending: e.Info.Pending, version: e.Info.VersionID}
	}
	sort.Slice(batch, func(i, j int) bool {
		return batch[i].Id.String() < batch[j].Id.String()
	})
	r.mu.Unlock()

	response, err := r.transport.Sync(ctx, batch)
	if err != nil {
		r.logger.Warn(ctx, "sync failed", "error", err.Error())
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Acknowledge what was sent, unless a concurrent edit re-queued the
	// entity while the exchange was in flight.
	for id, sub := range sent {
		e, ok := r.entries[id]
		if !ok || e.Info.Pending != sub.pending || e.Info.VersionID != sub.version {
			continue
		}
		if sub.pending == models.PendingDelete {
			delete(r.entries, id)
		} else {
			e.Info.Pending = models.PendingNone
		}
	}

	for _, ent := range response {
		if err := r.applyResponseEntity(ent); err != nil {
			return err
		}
	}

	if err := r.persist(ctx); err != nil {
		return err
	}
	r.notify()
	return nil
}

func (r *Repository[T]) applyResponseEntity(ent wire.Entity) error {
	switch ent.OnlineAction {
	case wire.ActionCreate, wire.ActionRead, wire.ActionUpdate:
		m := r.newModel()
		if err := json.Unmarshal([]byte(ent.Content), m); err != nil {
			return fmt.Errorf("deserializing server model %s: %w", ent.Id, err)
		}
		m.SetID(ent.Id)
		r.entries[ent.Id] = &entry[T]{
			Info:  models.CacheInfo{ID: ent.Id, VersionID: ent.VersionId, Pending: models.PendingNone},
			Model: m,
		}
	case wire.ActionDelete:
		if e, ok := r.entries[ent.Id]; ok {
			e.Info.Deleted = true
			e.Info.Pending = models.PendingNone
		}
	}
	return nil
}

// Reset discards the local cache slot for this kind.
func (r *Repository[T]) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.EraseKind(ctx, r.kind); err != nil {
		return err
	}
	r.entries = make(map[uuid.UUID]*entry[T])
	r.loaded = false
	return nil
}

// Subscribe returns a channel that receives a signal after every applied
// sync response. Signals are dropped, not queued, if the receiver lags.
func (r *Repository[T]) Subscribe() chan struct{} {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	ch := make(chan struct{}, 1)
	r.subs[ch] = struct{}{}
	return ch
}

func (r *Repository[T]) Unsubscribe(ch chan struct{}) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	delete(r.subs, ch)
}

func (r *Repository[T]) notify() {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	for ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
