// Package notify implements the single-slot notification queue.
//
// At most one notification is active. Anything pushed while one is active
// is dropped, not deferred. Notifications auto-dismiss after their timeout
// unless the timeout is zero or timers are disabled for the queue.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yndnr/linkhub-go/internal/core/domain"
	"github.com/yndnr/linkhub-go/internal/telemetry/metric"
)

// DefaultTimeout is the display time used when a producer sets none.
const DefaultTimeout = 2 * time.Second

// Listener receives the active notifications after every change.
type Listener func([]domain.Notification)

type entry struct {
	n     domain.Notification
	timer *time.Timer
}

// Queue is safe for concurrent use.
type Queue struct {
	defaultTimeout time.Duration
	timers         bool
	metrics        *metric.Registry

	mu      sync.Mutex
	entries []*entry
	closed  bool

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithDefaultTimeout overrides DefaultTimeout.
func WithDefaultTimeout(d time.Duration) QueueOption {
	return func(q *Queue) {
		q.defaultTimeout = d
	}
}

// WithoutTimers disables auto-dismiss: notifications stay until removed.
func WithoutTimers() QueueOption {
	return func(q *Queue) {
		q.timers = false
	}
}

// WithMetrics counts admitted and dropped notifications.
func WithMetrics(m *metric.Registry) QueueOption {
	return func(q *Queue) {
		q.metrics = m
	}
}

// New creates an empty queue.
func New(opts ...QueueOption) *Queue {
	q := &Queue{
		defaultTimeout: DefaultTimeout,
		timers:         true,
		listeners:      make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Option adjusts a single notification.
type Option func(*domain.Notification)

// WithType sets the notification type.
func WithType(t domain.NotificationType) Option {
	return func(n *domain.Notification) {
		n.Type = t
	}
}

// WithTitle sets the notification title.
func WithTitle(title string) Option {
	return func(n *domain.Notification) {
		n.Title = title
	}
}

// WithTimeout sets the display time. Zero keeps the notification until
// Remove is called.
func WithTimeout(d time.Duration) Option {
	return func(n *domain.Notification) {
		n.Timeout = d
	}
}

// Show pushes a notification. Type defaults to info. It returns the
// notification and whether it was admitted.
func (q *Queue) Show(message string, opts ...Option) (domain.Notification, bool) {
	n := domain.Notification{
		Type:    domain.NotificationInfo,
		Message: message,
		Timeout: q.defaultTimeout,
	}
	for _, opt := range opts {
		opt(&n)
	}
	if !n.Type.Valid() {
		n.Type = domain.NotificationInfo
	}
	return q.push(n)
}

// Success pushes a success notification; opts may override its type.
func (q *Queue) Success(message string, opts ...Option) (domain.Notification, bool) {
	return q.Show(message, prepend(WithType(domain.NotificationSuccess), opts)...)
}

// Error pushes an error notification.
func (q *Queue) Error(message string, opts ...Option) (domain.Notification, bool) {
	return q.Show(message, prepend(WithType(domain.NotificationError), opts)...)
}

// Info pushes an info notification.
func (q *Queue) Info(message string, opts ...Option) (domain.Notification, bool) {
	return q.Show(message, prepend(WithType(domain.NotificationInfo), opts)...)
}

// Warning pushes a warning notification.
func (q *Queue) Warning(message string, opts ...Option) (domain.Notification, bool) {
	return q.Show(message, prepend(WithType(domain.NotificationWarning), opts)...)
}

func prepend(first Option, rest []Option) []Option {
	return append([]Option{first}, rest...)
}

func (q *Queue) push(n domain.Notification) (domain.Notification, bool) {
	q.mu.Lock()
	if q.closed || len(q.entries) > 0 {
		q.mu.Unlock()
		q.metrics.ObserveNotification("dropped")
		return domain.Notification{}, false
	}

	n.ID = uuid.NewString()
	n.CreatedAt = time.Now()
	e := &entry{n: n}
	if q.timers && n.Timeout > 0 {
		id := n.ID
		e.timer = time.AfterFunc(n.Timeout, func() { q.Remove(id) })
	}
	q.entries = append(q.entries, e)
	list := q.listLocked()
	q.mu.Unlock()

	q.metrics.ObserveNotification("admitted")
	q.notify(list)
	return n, true
}

// Remove dismisses the notification with id and cancels its timer.
// Unknown ids are ignored.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	idx := -1
	for i, e := range q.entries {
		if e.n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		q.mu.Unlock()
		return
	}
	if t := q.entries[idx].timer; t != nil {
		t.Stop()
	}
	q.entries = append(q.entries[:idx], q.entries[idx+1:]...)
	list := q.listLocked()
	q.mu.Unlock()

	q.notify(list)
}

// List returns the active notifications.
func (q *Queue) List() []domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.listLocked()
}

func (q *Queue) listLocked() []domain.Notification {
	list := make([]domain.Notification, len(q.entries))
	for i, e := range q.entries {
		list[i] = e.n
	}
	return list
}

// Subscribe registers l and returns a function that removes it.
func (q *Queue) Subscribe(l Listener) func() {
	q.lmu.Lock()
	id := q.nextID
	q.nextID++
	q.listeners[id] = l
	q.lmu.Unlock()

	return func() {
		q.lmu.Lock()
		delete(q.listeners, id)
		q.lmu.Unlock()
	}
}

func (q *Queue) notify(list []domain.Notification) {
	q.lmu.Lock()
	ls := make([]Listener, 0, len(q.listeners))
	for _, l := range q.listeners {
		ls = append(ls, l)
	}
	q.lmu.Unlock()

	for _, l := range ls {
		l(list)
	}
}

// Close cancels all pending timers, empties the queue and tells listeners.
// Notifications pushed after Close are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for _, e := range q.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	q.entries = nil
	q.mu.Unlock()

	q.notify([]domain.Notification{})
}
