package notify

import (
	"context"
	"sync"

	"github.com/nmthanh/tutorhub/internal/model"
	"github.com/nmthanh/tutorhub/internal/stream"
	"github.com/rs/zerolog/log"
)

// NotificationTable is the logical table name feeds subscribe to.
const NotificationTable = "notifications"

// Store is the slice of the notification ledger a feed needs. The remote
// store is authoritative: local feed state is a projection reconciled
// against it on every Refresh.
type Store interface {
	RecentForRecipient(recipientID uint, limit int) ([]model.Notification, error)
	MarkRead(id string) error
	MarkAllRead(recipientID uint) error
	Delete(id string) error
}

// Feed is one recipient's live notification projection: a bounded
// newest-first list plus an unread counter. The counter always equals the
// number of held entries with read=false; every mutation recomputes it, so
// it can never drift or go negative.
type Feed struct {
	recipientID uint
	capacity    int
	store       Store
	sub         *stream.Subscription

	mu     sync.Mutex
	items  []model.Notification
	unread int

	changes chan struct{}
	done    chan struct{}
}

// OpenFeed fetches the recent window, subscribes to live notification
// events for the recipient, and starts consuming. The feed is torn down
// when ctx is cancelled; Wait blocks until the consumer loop has exited.
func OpenFeed(ctx context.Context, bus *stream.Bus, store Store, recipientID uint, capacity int) (*Feed, error) {
	f := &Feed{
		recipientID: recipientID,
		capacity:    capacity,
		store:       store,
		changes:     make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
	if err := f.Refresh(); err != nil {
		return nil, err
	}

	f.sub = bus.Subscribe(ctx, NotificationTable, func(e stream.Event) bool {
		n, ok := e.Payload.(model.Notification)
		return ok && n.RecipientID == recipientID
	})

	go f.consume()
	return f, nil
}

func (f *Feed) consume() {
	defer close(f.done)
	for ev := range f.sub.Events() {
		// delivery is at-least-once: a lagged subscription dropped events,
		// so the in-memory list can no longer be trusted and is rebuilt
		// from a bounded recent window.
		if f.sub.Lagged() {
			if err := f.Refresh(); err != nil {
				log.Error().Err(err).Uint("recipientID", f.recipientID).Msg("Feed re-fetch after lag failed")
				continue
			}
			f.sub.ResetLag()
			continue
		}
		n, ok := ev.Payload.(model.Notification)
		if !ok {
			continue
		}
		switch ev.Op {
		case stream.OpInsert:
			f.Apply(n)
		case stream.OpUpdate:
			f.applyUpdate(n)
		}
	}
}

// Wait blocks until the consumer loop has shut down.
func (f *Feed) Wait() { <-f.done }

// Changes signals after each mutation of the projection. The channel is
// coalescing: readers see "something changed", not one token per event.
func (f *Feed) Changes() <-chan struct{} { return f.changes }

func (f *Feed) signal() {
	select {
	case f.changes <- struct{}{}:
	default:
	}
}

// Apply adds an arriving notification, de-duplicating by id before
// appending: the subscription layer may deliver the same event twice.
func (f *Feed) Apply(n model.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, held := range f.items {
		if held.ID == n.ID {
			return
		}
	}
	f.items = append([]model.Notification{n}, f.items...)
	if f.capacity > 0 && len(f.items) > f.capacity {
		f.items = f.items[:f.capacity]
	}
	f.recount()
	f.signal()
}

func (f *Feed) applyUpdate(n model.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == n.ID {
			f.items[i] = n
			f.recount()
			f.signal()
			return
		}
	}
}

// MarkAsRead flips the read flag locally first, then confirms with the
// store. A failed remote write leaves the optimistic local state in place;
// the next Refresh reconciles it (remote wins).
func (f *Feed) MarkAsRead(id string) error {
	f.mu.Lock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Read = true
			break
		}
	}
	f.recount()
	f.signal()
	f.mu.Unlock()
	return f.store.MarkRead(id)
}

// MarkAllAsRead applies the bulk flip locally before the remote call
// returns, so the unread badge clears immediately.
func (f *Feed) MarkAllAsRead() error {
	f.mu.Lock()
	for i := range f.items {
		f.items[i].Read = true
	}
	f.recount()
	f.signal()
	f.mu.Unlock()
	return f.store.MarkAllRead(f.recipientID)
}

// Delete removes a notification locally and from the store.
func (f *Feed) Delete(id string) error {
	f.mu.Lock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			break
		}
	}
	f.recount()
	f.signal()
	f.mu.Unlock()
	return f.store.Delete(id)
}

// Refresh replaces the projection with the store's recent window. The
// remote value wins over any optimistic local state.
func (f *Feed) Refresh() error {
	recent, err := f.store.RecentForRecipient(f.recipientID, f.capacity)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.items = recent
	f.recount()
	f.signal()
	f.mu.Unlock()
	return nil
}

// Notifications returns a copy of the held list, newest first.
func (f *Feed) Notifications() []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Notification, len(f.items))
	copy(out, f.items)
	return out
}

// UnreadCount never goes negative: it is recomputed from the held list on
// every mutation.
func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}

// recount holds the invariant unread == |{held items with read=false}|.
// Callers must hold f.mu.
func (f *Feed) recount() {
	n := 0
	for i := range f.items {
		if !f.items[i].Read {
			n++
		}
	}
	f.unread = n
}
