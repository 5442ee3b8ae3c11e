// Package toast holds the short-lived popup queue shown when a
// notification arrives. It is session-local and never persisted.
package toast

import (
	"slices"
	"sync"
	"time"

	"github.com/fjod/bakehouse/internal/domain"
)

// DefaultTTL is how long a toast stays up unless dismissed.
const DefaultTTL = 5500 * time.Millisecond

type Item struct {
	ID          string             `json:"id"`
	Message     string             `json:"message"`
	OrderID     string             `json:"order_id"`
	OrderStatus domain.OrderStatus `json:"order_status"`
	EnqueuedAt  time.Time          `json:"enqueued_at"`
}

// Queue keeps toasts in arrival order. Each item expires on its own timer;
// a dismissed id is never shown again.
type Queue struct {
	mu        sync.Mutex
	ttl       time.Duration
	items     []Item
	timers    map[string]*time.Timer
	dismissed map[string]struct{}
	onChange  func()
	closed    bool
	now       func() time.Time
}

type Option func(*Queue)

func WithTTL(ttl time.Duration) Option {
	return func(q *Queue) {
		if ttl > 0 {
			q.ttl = ttl
		}
	}
}

// WithOnChange registers a callback fired after every enqueue, dismissal
// or expiry. It runs without the queue lock held.
func WithOnChange(fn func()) Option {
	return func(q *Queue) { q.onChange = fn }
}

func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		ttl:       DefaultTTL,
		timers:    make(map[string]*time.Timer),
		dismissed: make(map[string]struct{}),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends item and starts its expiry timer. It reports false when
// the id is already showing, was dismissed before, or the queue is closed.
func (q *Queue) Enqueue(item Item) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	if _, gone := q.dismissed[item.ID]; gone {
		q.mu.Unlock()
		return false
	}
	if _, showing := q.timers[item.ID]; showing {
		q.mu.Unlock()
		return false
	}

	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = q.now()
	}
	q.items = append(q.items, item)
	id := item.ID
	q.timers[id] = time.AfterFunc(q.ttl, func() { q.Dismiss(id) })
	q.mu.Unlock()

	q.changed()
	return true
}

// Dismiss removes id if it is showing; any other id is left untouched and
// can still be enqueued later.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	t, showing := q.timers[id]
	if !showing {
		q.mu.Unlock()
		return
	}
	q.dismissed[id] = struct{}{}
	t.Stop()
	delete(q.timers, id)
	q.items = slices.DeleteFunc(q.items, func(it Item) bool { return it.ID == id })
	q.mu.Unlock()

	q.changed()
}

// Items returns the visible toasts, oldest first.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.items)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops all timers and drops the visible items.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.items = nil
}

func (q *Queue) changed() {
	if q.onChange != nil {
		q.onChange()
	}
}
