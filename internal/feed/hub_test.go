package feed

import (
	"testing"
	"time"

	"kharcha/internal/core"
)

func snapshotOf(titles ...string) []core.Expense {
	out := make([]core.Expense, 0, len(titles))
	for _, title := range titles {
		out = append(out, core.Expense{ID: title, Title: title, Amount: core.Money{Cents: 100}, Category: "Food"})
	}
	return out
}

func receive(t *testing.T, sub *Subscription) []core.Expense {
	t.Helper()
	select {
	case snap, ok := <-sub.C:
		if !ok {
			t.Fatalf("subscription channel closed")
		}
		return snap
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for snapshot")
		return nil
	}
}

func TestBroadcastDeliversToUserSubscribers(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("u1")
	defer sub.Cancel()
	other := hub.Subscribe("u2")
	defer other.Cancel()

	hub.Broadcast("u1", snapshotOf("a", "b"))

	got := receive(t, sub)
	if len(got) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(got))
	}

	select {
	case <-other.C:
		t.Fatalf("subscriber of another user received the snapshot")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastCoalesces(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("u1")
	defer sub.Cancel()

	// Two broadcasts before the reader drains: only the newest survives.
	hub.Broadcast("u1", snapshotOf("old"))
	hub.Broadcast("u1", snapshotOf("new"))

	got := receive(t, sub)
	if len(got) != 1 || got[0].Title != "new" {
		t.Fatalf("expected latest snapshot only, got %+v", got)
	}

	select {
	case snap := <-sub.C:
		t.Fatalf("unexpected extra snapshot: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastCopiesSnapshot(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("u1")
	defer sub.Cancel()

	src := snapshotOf("x")
	hub.Broadcast("u1", src)
	src[0].Title = "mutated"

	got := receive(t, sub)
	if got[0].Title != "x" {
		t.Fatalf("delivered snapshot aliases the source slice")
	}
}

func TestCancel(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("u1")

	sub.Cancel()
	sub.Cancel() // idempotent

	if _, ok := <-sub.C; ok {
		t.Fatalf("channel should be closed after cancel")
	}
	if n := hub.SubscriberCount("u1"); n != 0 {
		t.Fatalf("subscriber count = %d, want 0", n)
	}

	// Broadcast after cancel must not panic.
	hub.Broadcast("u1", snapshotOf("a"))
}
