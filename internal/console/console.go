// internal/console/console.go
//
// Top-level orchestrator for operator intents.
//
// Context
// -------
// Console wires the create flow (validate → backend → registry) and keeps
// one Row per registered instance.  Rows are created and destroyed from
// registry events, never directly, so the set of rows always matches the
// set of confirmed records.
//
// Create flow
// -----------
//  1. Disable the submit control; a second submit while it is disabled is
//     rejected with OutcomeBusy and no backend call.
//  2. Compute the TTL from the picked expiry.
//  3. Validate the draft.  Failures come back synchronously in Result; the
//     caller decides where to show them.
//  4. Create.  Only a confirmed create touches the registry; conflicts and
//     failures are pushed to the notification queue.
//
// The control is re-enabled on every path and the form is always cleared.
package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/dbconsole/internal/backend"
	"github.com/yanizio/dbconsole/internal/metrics"
	"github.com/yanizio/dbconsole/internal/notify"
	"github.com/yanizio/dbconsole/internal/registry"
	"github.com/yanizio/dbconsole/internal/timefmt"
	"github.com/yanizio/dbconsole/internal/validate"
)

// ErrNoExpiry is returned when the draft passed validation but no expiry
// date was picked.
var ErrNoExpiry = errors.New("Expiry date must be set")

const (
	headerCreate        = "Error creating database!"
	headerLoadTemplates = "Error loading templates!"
	headerLoadDatabases = "Error loading databases!"
)

// Backend is the subset of the registry client the console mutates through.
type Backend interface {
	CreateDatabase(ctx context.Context, req backend.CreateRequest) error
	DeleteDatabase(ctx context.Context, db backend.Database) error
}

// Outcome is the result class of a create intent.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeInvalid  Outcome = "invalid"
	OutcomeConflict Outcome = "conflict"
	OutcomeFailed   Outcome = "failed"
	OutcomeBusy     Outcome = "busy"
)

// CreateInput is what the creation form submits.  Nil pointers mean the
// field was absent.
type CreateInput struct {
	Template *string
	Name     *string
	Expiry   *time.Time
}

// Result reports how a create intent ended.
type Result struct {
	Outcome Outcome
	Err     error
	Record  backend.Database
}

// Options tunes a Console.
type Options struct {
	Clock     clock.Clock
	Location  *time.Location
	MinExpiry time.Duration
	MaxExpiry time.Duration
}

// deps is shared by the console and its rows.
type deps struct {
	databases *registry.Databases
	backend   Backend
	notes     *notify.Queue
	log       *zap.SugaredLogger
}

// Console is the top-level controller.  Construct with New; call Close when
// done so the registry subscription is released.
type Console struct {
	*deps
	templates *registry.Templates
	clock     clock.Clock
	loc       *time.Location
	minExpiry time.Duration
	maxExpiry time.Duration

	submit Control

	mu          sync.RWMutex
	rows        map[string]*Row
	unsubscribe func()
	unsubNotes  func()
}

// New builds a Console over the two registries and subscribes to database
// events.  Rows for records already in the registry are created at once.
func New(templates *registry.Templates, databases *registry.Databases, be Backend,
	notes *notify.Queue, opts Options, log *zap.SugaredLogger) *Console {
	if log == nil {
		log = zap.S()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	c := &Console{
		deps: &deps{
			databases: databases,
			backend:   be,
			notes:     notes,
			log:       log,
		},
		templates: templates,
		clock:     opts.Clock,
		loc:       opts.Location,
		minExpiry: opts.MinExpiry,
		maxExpiry: opts.MaxExpiry,
		rows:      map[string]*Row{},
	}
	c.unsubscribe = databases.Subscribe(c.onDatabaseEvent)
	c.unsubNotes = notes.Subscribe(c.onNotification)
	c.resync()
	return c
}

// Start fetches templates and databases concurrently.  Each failure pushes
// a notification; the first error is returned for logging.  Start may be
// called again to reload.
func (c *Console) Start(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		if err := c.templates.LoadAll(ctx); err != nil {
			c.notes.Push(headerLoadTemplates, backend.Message(err))
			return fmt.Errorf("load templates: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := c.databases.LoadAll(ctx); err != nil {
			c.notes.Push(headerLoadDatabases, backend.Message(err))
			return fmt.Errorf("load databases: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// Close releases the registry subscription and destroys every row.
func (c *Console) Close() {
	c.unsubscribe()
	c.unsubNotes()
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, r := range c.rows {
		r.destroy()
		delete(c.rows, id)
	}
}

// CreateDatabase runs the create flow for one submitted form.
func (c *Console) CreateDatabase(ctx context.Context, in CreateInput) (res Result) {
	if !c.submit.Disable() {
		metrics.CreateRequestsTotal.WithLabelValues(string(OutcomeBusy)).Inc()
		return Result{Outcome: OutcomeBusy, Err: ErrBusy}
	}
	defer c.submit.Enable()
	defer func() {
		metrics.CreateRequestsTotal.WithLabelValues(string(res.Outcome)).Inc()
	}()

	now := c.clock.Now()
	var ttl int64
	if in.Expiry != nil {
		ttl = timefmt.TTL(*in.Expiry, now)
	}

	draft := validate.Draft{Template: in.Template, Name: in.Name}
	if err := validate.Validate(draft, c.templates); err != nil {
		c.log.Infow("create rejected", "reason", err.Error())
		return Result{Outcome: OutcomeInvalid, Err: err}
	}
	if in.Expiry == nil {
		return Result{Outcome: OutcomeInvalid, Err: ErrNoExpiry}
	}

	req := backend.CreateRequest{Name: *in.Name, Template: *in.Template, TTL: ttl}
	err := c.backend.CreateDatabase(ctx, req)

	switch backend.Classify(err) {
	case backend.OutcomeOK:
		rec := backend.NewDatabase(req.Template, req.Name)
		rec.TTL = ttl
		rec.Created = now.Unix()
		rec.ExpiresAt = now.Unix() + ttl
		c.databases.Add(rec)
		c.log.Infow("database created", "id", rec.ID, "template", rec.Template, "ttl", ttl)
		return Result{Outcome: OutcomeCreated, Record: rec}

	case backend.OutcomeConflict:
		c.log.Warnw("database already exists", "name", req.Name, "template", req.Template)
		c.notes.Push(headerCreate, backend.Message(err))
		return Result{Outcome: OutcomeConflict, Err: err}

	default:
		c.log.Errorw("create failed", "name", req.Name, "template", req.Template, "err", err)
		c.notes.Push(headerCreate, backend.Message(err))
		return Result{Outcome: OutcomeFailed, Err: err}
	}
}

// SubmitDisabled reports whether a create is in flight.
func (c *Console) SubmitDisabled() bool { return c.submit.Disabled() }

// Row returns the controller for id.
func (c *Console) Row(id string) (*Row, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rows[id]
	return r, ok
}

// Rows returns the row controllers in registry order.
func (c *Console) Rows() []*Row {
	list := c.databases.List()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Row, 0, len(list))
	for _, rec := range list {
		if r, ok := c.rows[rec.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Templates returns the loaded template names.
func (c *Console) Templates() []string { return c.templates.Names() }

// Notifications returns the queue rows and the create flow report into.
func (c *Console) Notifications() *notify.Queue { return c.notes }

// Location is the zone timestamps are displayed and picked in.
func (c *Console) Location() *time.Location { return c.loc }

// ExpiryWindow returns the range the date picker offers right now.
func (c *Console) ExpiryWindow() (lo, hi time.Time) {
	return timefmt.Window(c.clock.Now(), c.minExpiry, c.maxExpiry)
}

// onNotification writes what the operator was shown to the log.
func (c *Console) onNotification(ev notify.Event) {
	n := ev.Notification
	if ev.Kind == notify.Pushed {
		c.log.Infow("notification shown", "id", n.ID, "header", n.Header, "message", n.Message)
		return
	}
	c.log.Debugw("notification closed", "id", n.ID, "how", ev.Kind.String())
}

func (c *Console) onDatabaseEvent(ev registry.Event) {
	switch ev.Kind {
	case registry.Added:
		c.mu.Lock()
		if _, ok := c.rows[ev.Record.ID]; !ok {
			c.rows[ev.Record.ID] = newRow(c.deps, ev.Record)
		}
		c.mu.Unlock()
	case registry.Removed:
		c.mu.Lock()
		if r, ok := c.rows[ev.Record.ID]; ok {
			r.destroy()
			delete(c.rows, ev.Record.ID)
		}
		c.mu.Unlock()
	case registry.Reset:
		c.resync()
	}
}

// resync rebuilds rows from the registry, keeping the state of rows whose
// record survived.
func (c *Console) resync() {
	list := c.databases.List()

	c.mu.Lock()
	defer c.mu.Unlock()
	fresh := make(map[string]*Row, len(list))
	for _, rec := range list {
		if r, ok := c.rows[rec.ID]; ok {
			r.mu.Lock()
			r.record = rec
			r.mu.Unlock()
			fresh[rec.ID] = r
			continue
		}
		fresh[rec.ID] = newRow(c.deps, rec)
	}
	for id, r := range c.rows {
		if _, ok := fresh[id]; !ok {
			r.destroy()
		}
	}
	c.rows = fresh
}
