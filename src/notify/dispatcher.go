// Package notify is the transient toast queue surfaced next to the
// Connect view. Entries expire on their own; nothing here is persisted.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

const DefaultTTL = 4 * time.Second

type Toast struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// Dispatcher keeps a FIFO queue of toasts, each removing itself after the
// fixed ttl. No dedup and no priority; the bounded lifetime keeps growth
// in check.
type Dispatcher struct {
	ttl time.Duration

	mu     sync.Mutex
	queue  []Toast
	timers map[string]*time.Timer
	closed bool
}

func NewDispatcher(ttl time.Duration) *Dispatcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Dispatcher{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// Push appends a toast and schedules its removal.
func (d *Dispatcher) Push(message string, kind Kind) Toast {
	toast := Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return toast
	}
	d.queue = append(d.queue, toast)
	d.timers[toast.ID] = time.AfterFunc(d.ttl, func() { d.expire(toast.ID) })
	return toast
}

// Active returns the queue in arrival order.
func (d *Dispatcher) Active() []Toast {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Toast, len(d.queue))
	copy(out, d.queue)
	return out
}

func (d *Dispatcher) expire(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.timers, id)
	for i, t := range d.queue {
		if t.ID == id {
			d.queue = append(d.queue[:i], d.queue[i+1:]...)
			return
		}
	}
}

// Close stops the outstanding expiry timers.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for id, timer := range d.timers {
		timer.Stop()
		delete(d.timers, id)
	}
	d.queue = nil
}
