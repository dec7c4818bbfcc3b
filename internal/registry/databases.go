// internal/registry/databases.go
//
// Authoritative client-side set of provisioned instances.
//
// Context
// -------
// The registry mirrors confirmed backend state exactly.  Add is called only
// after the backend confirmed a create, Remove only after it confirmed a
// delete; there is never a pending entry.  Connection details fetched by
// FetchDetail go back to the caller and are never stored here.
//
// Subscribers receive Added, Removed, and Reset events after each mutation
// commits, in mutation order.  Callbacks run outside the registry lock so
// they may read the registry freely.
//
// Notes
// -----
//   - LoadAll is collapsed through singleflight.
//   - The registered_databases gauge follows Len().
package registry

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/dbconsole/internal/backend"
	"github.com/yanizio/dbconsole/internal/metrics"
)

// ErrNotFound is returned by FetchDetail for an id not in the registry.
var ErrNotFound = errors.New("database not found")

// DatabaseSource lists and inspects instances.  *backend.Client satisfies it.
type DatabaseSource interface {
	ListDatabases(ctx context.Context) ([]backend.Database, error)
	ReadDatabase(ctx context.Context, db backend.Database) (backend.Detail, error)
}

// EventKind names a registry mutation.
type EventKind int

const (
	Added EventKind = iota + 1
	Removed
	Reset
)

func (k EventKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Reset:
		return "reset"
	}
	return "unknown"
}

// Event describes one committed mutation.  Record is empty for Reset.
type Event struct {
	Kind   EventKind
	Record backend.Database
}

type subscriber struct {
	id uint64
	fn func(Event)
}

// Databases is the database registry.  Construct with NewDatabases.
type Databases struct {
	src DatabaseSource
	log *zap.SugaredLogger
	sfg singleflight.Group

	mu      sync.RWMutex
	order   []string
	records map[string]backend.Database

	// notifyMu serialises event delivery so subscribers see mutation order.
	notifyMu sync.Mutex
	subMu    sync.Mutex
	subs     []subscriber
	nextSub  uint64
}

// NewDatabases returns an empty registry backed by src.
func NewDatabases(src DatabaseSource, log *zap.SugaredLogger) *Databases {
	if log == nil {
		log = zap.S()
	}
	return &Databases{src: src, log: log, records: map[string]backend.Database{}}
}

// LoadAll replaces the whole registry with the backend's list.  On error the
// contents are left unchanged.
func (d *Databases) LoadAll(ctx context.Context) error {
	_, err, _ := d.sfg.Do("load", func() (any, error) {
		list, err := d.src.ListDatabases(ctx)
		if err != nil {
			d.log.Errorw("database load failed", "err", err)
			return nil, err
		}

		d.notifyMu.Lock()
		defer d.notifyMu.Unlock()

		d.mu.Lock()
		d.order = d.order[:0]
		d.records = make(map[string]backend.Database, len(list))
		for _, rec := range list {
			rec.ID = rec.Name
			if _, dup := d.records[rec.ID]; dup {
				continue
			}
			d.records[rec.ID] = rec
			d.order = append(d.order, rec.ID)
		}
		n := len(d.order)
		d.mu.Unlock()

		metrics.RegisteredDatabases.Set(float64(n))
		d.log.Infow("databases loaded", "count", n)
		d.emit(Event{Kind: Reset})
		return nil, nil
	})
	return err
}

// Add inserts a record confirmed as created.  A record whose id is already
// present is ignored and Add returns false.
func (d *Databases) Add(rec backend.Database) bool {
	rec.ID = rec.Name

	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()

	d.mu.Lock()
	if _, ok := d.records[rec.ID]; ok {
		d.mu.Unlock()
		d.log.Warnw("database already registered", "id", rec.ID)
		return false
	}
	d.records[rec.ID] = rec
	d.order = append(d.order, rec.ID)
	n := len(d.order)
	d.mu.Unlock()

	metrics.RegisteredDatabases.Set(float64(n))
	d.emit(Event{Kind: Added, Record: rec})
	return true
}

// Remove drops a record confirmed as deleted.  Returns false when id is
// unknown.
func (d *Databases) Remove(id string) bool {
	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()

	d.mu.Lock()
	rec, ok := d.records[id]
	if !ok {
		d.mu.Unlock()
		return false
	}
	delete(d.records, id)
	for i, v := range d.order {
		if v == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	n := len(d.order)
	d.mu.Unlock()

	metrics.RegisteredDatabases.Set(float64(n))
	d.emit(Event{Kind: Removed, Record: rec})
	return true
}

// Get returns the record for id.
func (d *Databases) Get(id string) (backend.Database, bool) {
	d.mu.RLock()
	rec, ok := d.records[id]
	d.mu.RUnlock()
	return rec, ok
}

// List returns every record in insertion order.
func (d *Databases) List() []backend.Database {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]backend.Database, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.records[id])
	}
	return out
}

// Len reports the number of registered instances.
func (d *Databases) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.order)
}

// FetchDetail reads the full record for id from the backend.  The detail is
// returned to the caller only; the registry keeps its list-view record.
func (d *Databases) FetchDetail(ctx context.Context, id string) (backend.Detail, error) {
	rec, ok := d.Get(id)
	if !ok {
		return backend.Detail{}, ErrNotFound
	}
	return d.src.ReadDatabase(ctx, rec)
}

// Subscribe registers fn for every future event and returns the function
// that removes it.
func (d *Databases) Subscribe(fn func(Event)) (unsubscribe func()) {
	d.subMu.Lock()
	d.nextSub++
	id := d.nextSub
	d.subs = append(d.subs, subscriber{id: id, fn: fn})
	d.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.subMu.Lock()
			defer d.subMu.Unlock()
			for i, s := range d.subs {
				if s.id == id {
					d.subs = append(d.subs[:i], d.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// emit delivers ev to a snapshot of the current subscribers.  Callers hold
// notifyMu.
func (d *Databases) emit(ev Event) {
	d.subMu.Lock()
	subs := make([]subscriber, len(d.subs))
	copy(subs, d.subs)
	d.subMu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}
