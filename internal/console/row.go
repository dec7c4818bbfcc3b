// internal/console/row.go
//
// Per-instance state machine.
//
// Context
// -------
// Every registered instance gets one Row.  Its state doubles as the
// disabled flag of the row's buttons:
//
//	Idle ──inspect──▶ Inspecting ──done──▶ Idle
//	Idle ──delete───▶ ConfirmPending ──deny──▶ Idle
//	                  ConfirmPending ──approve──▶ Deleting
//	Deleting ──ok──▶ (record removed, row destroyed)
//	Deleting ──err─▶ Idle
//
// Intents that do not match the current state are rejected with ErrBusy,
// so two calls for the same record never overlap.  Failed inspect and
// delete calls are reported through the notification queue.
package console

import (
	"context"
	"errors"
	"sync"

	"github.com/yanizio/dbconsole/internal/backend"
)

var (
	// ErrBusy means the control for this intent is disabled.
	ErrBusy = errors.New("another request for this database is in progress")
	// ErrDestroyed means the row's record has left the registry.
	ErrDestroyed = errors.New("database is no longer registered")
)

// Notification headers used by rows.
const (
	headerInspect = "Error inspecting database!"
	headerDelete  = "Error deleting database!"
)

// RowState is the UI state of one row.
type RowState int

const (
	Idle RowState = iota
	Inspecting
	ConfirmPending
	Deleting
)

func (s RowState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Inspecting:
		return "inspecting"
	case ConfirmPending:
		return "confirm-pending"
	case Deleting:
		return "deleting"
	}
	return "unknown"
}

// Row is the controller bound to one registry entry.
type Row struct {
	deps *deps

	mu        sync.Mutex
	record    backend.Database
	state     RowState
	destroyed bool
}

func newRow(d *deps, rec backend.Database) *Row {
	return &Row{deps: d, record: rec}
}

// Record returns the list-view record this row is bound to.
func (r *Row) Record() backend.Database {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record
}

// State returns the current state.
func (r *Row) State() RowState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// transition moves from → to, or fails when the row is destroyed or in a
// different state.
func (r *Row) transition(from, to RowState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return ErrDestroyed
	}
	if r.state != from {
		return ErrBusy
	}
	r.state = to
	return nil
}

func (r *Row) settle(to RowState) {
	r.mu.Lock()
	if !r.destroyed {
		r.state = to
	}
	r.mu.Unlock()
}

// Inspect fetches the instance's connection details.  The row returns to
// Idle whatever the outcome.
func (r *Row) Inspect(ctx context.Context) (backend.Detail, error) {
	if err := r.transition(Idle, Inspecting); err != nil {
		return backend.Detail{}, err
	}
	defer r.settle(Idle)

	rec := r.Record()
	detail, err := r.deps.databases.FetchDetail(ctx, rec.ID)
	if err != nil {
		r.deps.log.Warnw("inspect failed", "id", rec.ID, "template", rec.Template, "err", err)
		r.deps.notes.Push(headerInspect, backend.Message(err))
		return backend.Detail{}, err
	}
	return detail, nil
}

// RequestDelete opens the confirmation dialog.
func (r *Row) RequestDelete() error {
	return r.transition(Idle, ConfirmPending)
}

// Deny closes the confirmation dialog without deleting.
func (r *Row) Deny() error {
	return r.transition(ConfirmPending, Idle)
}

// Approve deletes the instance.  On success the record is removed from the
// registry, which destroys this row.  On failure the row returns to Idle.
func (r *Row) Approve(ctx context.Context) error {
	if err := r.transition(ConfirmPending, Deleting); err != nil {
		return err
	}

	rec := r.Record()
	if err := r.deps.backend.DeleteDatabase(ctx, rec); err != nil {
		r.settle(Idle)
		r.deps.log.Warnw("delete failed", "id", rec.ID, "template", rec.Template, "err", err)
		r.deps.notes.Push(headerDelete, backend.Message(err))
		return err
	}

	// Registry removal fires the Removed event that destroys this row; the
	// row lock must not be held here.
	r.deps.databases.Remove(rec.ID)
	r.deps.log.Infow("database deleted", "id", rec.ID, "template", rec.Template)
	return nil
}

// Destroyed reports whether the row has been torn down.
func (r *Row) Destroyed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroyed
}

func (r *Row) destroy() {
	r.mu.Lock()
	r.destroyed = true
	r.mu.Unlock()
}
