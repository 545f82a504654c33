// Package events implements the in-process change-notification bus. Every
// mutating service operation publishes a row-level change here; screen
// subscriptions (the SSE stream and the client SDK's realtime refreshers)
// consume them.
package events

import (
	"sync"
	"time"
)

// EventType identifies the kind of row change.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Known table names.
const (
	TableTransactions = "transactions"
	TableCategories   = "categories"
	TableBudgets      = "budgets"
)

// Change is a single row-level change notification. New carries the row
// after the change (insert/update), Old the row before it (update/delete).
type Change struct {
	Table  string    `json:"table"`
	Type   EventType `json:"type"`
	UserID string    `json:"user_id"`
	New    any       `json:"new,omitempty"`
	Old    any       `json:"old,omitempty"`
	At     time.Time `json:"at"`
}

// subBuffer is the per-subscription channel depth. A subscriber that falls
// further behind loses events; the poll backstop on the consuming side
// covers the gap, so delivery here is best-effort.
const subBuffer = 16

// Subscription is a registered listener on the bus. Receive from C and call
// Unsubscribe when done; C is closed afterwards.
type Subscription struct {
	C chan Change

	bus    *Bus
	id     int
	table  string
	userID string
}

// Unsubscribe removes the subscription from the bus and closes C.
// Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.bus.remove(s.id)
}

// Bus fans out change notifications to subscribers.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]*Subscription
	nextID  int
	forward func(Change)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*Subscription)}
}

// OnPublish installs a hook invoked for every locally published change,
// before fan-out. Used to forward changes to other API instances over AMQP.
func (b *Bus) OnPublish(fn func(Change)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forward = fn
}

// Subscribe registers a listener for changes on table. An empty userID
// receives changes for all users; otherwise only that owner's changes are
// delivered.
func (b *Bus) Subscribe(table, userID string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		C:      make(chan Change, subBuffer),
		bus:    b,
		id:     b.nextID,
		table:  table,
		userID: userID,
	}
	b.subs[sub.id] = sub
	return sub
}

// Publish delivers a locally originated change to matching subscribers and
// the forward hook.
func (b *Bus) Publish(ch Change) {
	if ch.At.IsZero() {
		ch.At = time.Now()
	}

	b.mu.RLock()
	forward := b.forward
	b.mu.RUnlock()
	if forward != nil {
		forward(ch)
	}

	b.Inject(ch)
}

// Inject delivers a change to matching subscribers without invoking the
// forward hook. Remote changes received over AMQP enter here so they are
// not re-forwarded in a loop.
func (b *Bus) Inject(ch Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if sub.table != ch.Table {
			continue
		}
		if sub.userID != "" && sub.userID != ch.UserID {
			continue
		}
		select {
		case sub.C <- ch:
		default:
			// Subscriber is not keeping up; drop.
		}
	}
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.C)
	}
}
