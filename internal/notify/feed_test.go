package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nmthanh/tutorhub/internal/model"
	"github.com/nmthanh/tutorhub/internal/stream"
)

type fakeStore struct {
	recent      []model.Notification
	recentErr   error
	markReadErr error
	markedRead  []string
	markedAll   int
	deleted     []string
}

func (s *fakeStore) RecentForRecipient(recipientID uint, limit int) ([]model.Notification, error) {
	if s.recentErr != nil {
		return nil, s.recentErr
	}
	if limit > 0 && len(s.recent) > limit {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}

func (s *fakeStore) MarkRead(id string) error {
	s.markedRead = append(s.markedRead, id)
	return s.markReadErr
}

func (s *fakeStore) MarkAllRead(recipientID uint) error {
	s.markedAll++
	return nil
}

func (s *fakeStore) Delete(id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func notif(id string, recipient uint, read bool) model.Notification {
	return model.Notification{ID: id, RecipientID: recipient, Type: "quiz_published", Read: read}
}

func openTestFeed(t *testing.T, store *fakeStore, capacity int) (*Feed, *stream.Bus, context.CancelFunc) {
	t.Helper()
	bus := stream.NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	f, err := OpenFeed(ctx, bus, store, 7, capacity)
	if err != nil {
		cancel()
		t.Fatalf("OpenFeed() error = %v", err)
	}
	return f, bus, cancel
}

func TestFeedUnreadInvariant(t *testing.T) {
	f, _, cancel := openTestFeed(t, &fakeStore{}, 50)
	defer cancel()

	const arrivals = 5
	for i := 0; i < arrivals; i++ {
		f.Apply(notif(fmt.Sprintf("n%d", i), 7, false))
	}
	if got := f.UnreadCount(); got != arrivals {
		t.Fatalf("after %d arrivals unread = %d", arrivals, got)
	}

	// M mark-read calls on distinct ids: unread == N - M
	for i := 0; i < 3; i++ {
		if err := f.MarkAsRead(fmt.Sprintf("n%d", i)); err != nil {
			t.Fatalf("MarkAsRead() error = %v", err)
		}
	}
	if got := f.UnreadCount(); got != arrivals-3 {
		t.Errorf("after 3 mark-read unread = %d, want %d", got, arrivals-3)
	}

	// marking the same id again must not double-decrement
	if err := f.MarkAsRead("n0"); err != nil {
		t.Fatalf("MarkAsRead() error = %v", err)
	}
	if got := f.UnreadCount(); got != arrivals-3 {
		t.Errorf("repeated mark-read changed unread to %d, want %d", got, arrivals-3)
	}

	if err := f.MarkAllAsRead(); err != nil {
		t.Fatalf("MarkAllAsRead() error = %v", err)
	}
	if got := f.UnreadCount(); got != 0 {
		t.Errorf("after mark-all-read unread = %d, want 0", got)
	}

	// marking an id that is not held must clamp, never go negative
	_ = f.MarkAsRead("ghost")
	if got := f.UnreadCount(); got != 0 {
		t.Errorf("unread went to %d after marking unknown id, want 0", got)
	}
}

func TestFeedDeduplicatesArrivals(t *testing.T) {
	f, _, cancel := openTestFeed(t, &fakeStore{}, 50)
	defer cancel()

	// the subscription layer is at-least-once: the same event can arrive twice
	f.Apply(notif("dup", 7, false))
	f.Apply(notif("dup", 7, false))

	if got := len(f.Notifications()); got != 1 {
		t.Errorf("duplicate arrival appended, held %d items, want 1", got)
	}
	if got := f.UnreadCount(); got != 1 {
		t.Errorf("duplicate arrival inflated unread to %d, want 1", got)
	}
}

func TestFeedBoundedNewestFirst(t *testing.T) {
	f, _, cancel := openTestFeed(t, &fakeStore{}, 3)
	defer cancel()

	for i := 0; i < 5; i++ {
		f.Apply(notif(fmt.Sprintf("n%d", i), 7, false))
	}
	items := f.Notifications()
	if len(items) != 3 {
		t.Fatalf("feed holds %d items, want capacity 3", len(items))
	}
	if items[0].ID != "n4" || items[2].ID != "n2" {
		t.Errorf("feed order = [%s %s %s], want newest first [n4 n3 n2]", items[0].ID, items[1].ID, items[2].ID)
	}
	if got := f.UnreadCount(); got != 3 {
		t.Errorf("unread = %d, want 3 (trimmed items do not count)", got)
	}
}

func TestFeedOptimisticMarkReadReconciled(t *testing.T) {
	store := &fakeStore{markReadErr: errors.New("network down")}
	f, _, cancel := openTestFeed(t, store, 50)
	defer cancel()

	f.Apply(notif("n1", 7, false))

	// remote call fails but the local projection flips immediately
	if err := f.MarkAsRead("n1"); err == nil {
		t.Fatal("MarkAsRead() should surface the remote error")
	}
	if got := f.UnreadCount(); got != 0 {
		t.Errorf("optimistic unread = %d, want 0", got)
	}

	// next authoritative fetch wins: the store still has n1 unread
	store.recent = []model.Notification{notif("n1", 7, false)}
	if err := f.Refresh(); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := f.UnreadCount(); got != 1 {
		t.Errorf("after reconciliation unread = %d, want 1 (remote wins)", got)
	}
}

func TestFeedLiveDeliveryAndTeardown(t *testing.T) {
	store := &fakeStore{}
	f, bus, cancel := openTestFeed(t, store, 50)

	bus.Publish(stream.Event{Table: NotificationTable, Op: stream.OpInsert, Payload: notif("live", 7, false)})
	// event for another recipient must be filtered out
	bus.Publish(stream.Event{Table: NotificationTable, Op: stream.OpInsert, Payload: notif("other", 8, false)})

	deadline := time.After(time.Second)
	for f.UnreadCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("live notification never reached the feed")
		case <-time.After(time.Millisecond):
		}
	}
	items := f.Notifications()
	if len(items) != 1 || items[0].ID != "live" {
		t.Errorf("feed items = %+v, want just 'live'", items)
	}

	cancel()
	done := make(chan struct{})
	go func() { f.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("feed consumer leaked after context cancellation")
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		tag  string
		want Category
	}{
		{model.NotificationTypeQuizPublished, CategoryQuiz},
		{model.NotificationTypeQuizGraded, CategoryGrade},
		{"session_scheduled", CategorySchedule},
		{"announcement", CategoryAnnouncement},
		{"totally_unknown_tag", CategorySystem},
		{"", CategorySystem},
	}
	for _, tt := range tests {
		if got := CategoryOf(tt.tag); got != tt.want {
			t.Errorf("CategoryOf(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}
