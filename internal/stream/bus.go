// Package stream is the change-subscription primitive over the backing
// store: per-table insert/update event streams. Delivery is at-least-once,
// ordered within one subscription; a subscription that cannot keep up is
// marked lagged and its consumer must re-fetch a recent window from the
// store instead of trusting its in-memory view.
package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
)

// Event is one observed mutation of a logical table.
type Event struct {
	Table   string
	Op      Op
	Payload interface{}
}

// Filter narrows a subscription to the events it cares about.
type Filter func(Event) bool

const defaultBuffer = 64

// Subscription is an explicit handle owned by the session context that
// created it. Teardown is the owner's responsibility: cancel the context
// passed to Subscribe, or call Close.
type Subscription struct {
	id     uint64
	table  string
	filter Filter
	events chan Event
	lagged atomic.Bool

	closeOnce sync.Once
	bus       *Bus
}

// Events yields the subscription's ordered event stream. The channel is
// closed on teardown.
func (s *Subscription) Events() <-chan Event { return s.events }

// Lagged reports whether events were dropped because the consumer fell
// behind. Once lagged, the consumer must re-fetch; ResetLag acknowledges
// that the re-fetch happened.
func (s *Subscription) Lagged() bool { return s.lagged.Load() }

func (s *Subscription) ResetLag() { s.lagged.Store(false) }

// Close detaches the subscription from the bus and closes its channel.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.bus.unsubscribe(s)
	})
}

// Bus fans table change events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]*Subscription // table -> id -> sub
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[uint64]*Subscription)}
}

// Subscribe registers for events on one table. A nil filter matches every
// event. The subscription is torn down when ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context, table string, filter Filter) *Subscription {
	b.mu.Lock()
	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		table:  table,
		filter: filter,
		events: make(chan Event, defaultBuffer),
		bus:    b,
	}
	if b.subs[table] == nil {
		b.subs[table] = make(map[uint64]*Subscription)
	}
	b.subs[table][sub.id] = sub
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		sub.Close()
	}()
	return sub
}

// Publish delivers an event to every matching subscriber of its table.
// A full subscriber buffer marks that subscription lagged and drops the
// event rather than blocking the publisher.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs[e.Table] {
		if sub.filter != nil && !sub.filter(e) {
			continue
		}
		select {
		case sub.events <- e:
		default:
			sub.lagged.Store(true)
			log.Warn().Str("table", e.Table).Uint64("subscription", sub.id).
				Msg("Subscriber buffer full, event dropped; consumer must re-fetch")
		}
	}
}

func (b *Bus) unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if table, ok := b.subs[s.table]; ok {
		delete(table, s.id)
	}
	close(s.events)
}
