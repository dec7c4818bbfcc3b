// internal/notify/queue.go
//
// Transient operator notifications.
//
// Context
// -------
// Failures the operator should see (create conflicts, backend errors) are
// pushed here.  Each notification is visible immediately and carries its own
// timer: after the configured timeout it expires and is discarded.  A manual
// dismiss removes it at once and stops the pending timer.  Notifications are
// independent; nothing is coalesced and Active() keeps insertion order.
//
// The clock is injected so tests can advance time deterministically.
//
// Notes
// -----
//   - The active_notifications gauge tracks the visible count.
//   - Oxford commas, two spaces after periods.
package notify

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/yanizio/dbconsole/internal/metrics"
)

// DefaultTimeout is how long a notification stays visible.
const DefaultTimeout = 3000 * time.Millisecond

// Notification is one visible message.
type Notification struct {
	ID      uint64
	Header  string
	Message string
	Created time.Time
}

// EventKind names a queue change.
type EventKind int

const (
	Pushed EventKind = iota + 1
	Dismissed
	Expired
)

func (k EventKind) String() string {
	switch k {
	case Pushed:
		return "pushed"
	case Dismissed:
		return "dismissed"
	case Expired:
		return "expired"
	}
	return "unknown"
}

// Event is delivered to subscribers after each change.
type Event struct {
	Kind         EventKind
	Notification Notification
}

type entry struct {
	n     Notification
	timer *clock.Timer
}

// Queue holds the visible notifications.  Construct with New.
type Queue struct {
	clock   clock.Clock
	timeout time.Duration
	log     *zap.SugaredLogger

	mu      sync.Mutex
	nextID  uint64
	entries []*entry
	subs    map[uint64]func(Event)
	nextSub uint64
}

// New returns an empty queue.  A nil clock uses the wall clock; a
// non-positive timeout uses DefaultTimeout.
func New(clk clock.Clock, timeout time.Duration, log *zap.SugaredLogger) *Queue {
	if clk == nil {
		clk = clock.New()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.S()
	}
	return &Queue{clock: clk, timeout: timeout, log: log, subs: map[uint64]func(Event){}}
}

// Push makes a notification visible and schedules its expiry.
func (q *Queue) Push(header, message string) Notification {
	q.mu.Lock()
	q.nextID++
	n := Notification{
		ID:      q.nextID,
		Header:  header,
		Message: message,
		Created: q.clock.Now(),
	}
	e := &entry{n: n}
	q.entries = append(q.entries, e)
	id := n.ID
	e.timer = q.clock.AfterFunc(q.timeout, func() { q.expire(id) })
	count := len(q.entries)
	q.mu.Unlock()

	metrics.ActiveNotifications.Set(float64(count))
	q.emit(Event{Kind: Pushed, Notification: n})
	return n
}

// Dismiss discards the notification now and cancels its timer.  Returns
// false when id is no longer visible.
func (q *Queue) Dismiss(id uint64) bool {
	e, ok := q.take(id)
	if !ok {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	q.emit(Event{Kind: Dismissed, Notification: e.n})
	return true
}

func (q *Queue) expire(id uint64) {
	e, ok := q.take(id)
	if !ok {
		return
	}
	q.log.Debugw("notification timer fired", "id", id, "after", q.timeout)
	q.emit(Event{Kind: Expired, Notification: e.n})
}

func (q *Queue) take(id uint64) (*entry, bool) {
	q.mu.Lock()
	var found *entry
	for i, e := range q.entries {
		if e.n.ID == id {
			found = e
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	count := len(q.entries)
	q.mu.Unlock()

	if found == nil {
		return nil, false
	}
	metrics.ActiveNotifications.Set(float64(count))
	return found, true
}

// Active returns the visible notifications in insertion order.
func (q *Queue) Active() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notification, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.n
	}
	return out
}

// Timeout reports the configured display time.  Pages use it to schedule
// their own refresh.
func (q *Queue) Timeout() time.Duration { return q.timeout }

// Subscribe registers fn for future events and returns its remover.
func (q *Queue) Subscribe(fn func(Event)) (unsubscribe func()) {
	q.mu.Lock()
	q.nextSub++
	id := q.nextSub
	q.subs[id] = fn
	q.mu.Unlock()
	return func() {
		q.mu.Lock()
		delete(q.subs, id)
		q.mu.Unlock()
	}
}

func (q *Queue) emit(ev Event) {
	q.mu.Lock()
	fns := make([]func(Event), 0, len(q.subs))
	for _, fn := range q.subs {
		fns = append(fns, fn)
	}
	q.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
