package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	"kharcha/internal/feed"
	"kharcha/internal/storage"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []string
	fail    bool
}

func (p *recordingPublisher) PublishExpenseChange(_ context.Context, userID, expenseID, op string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.changes = append(p.changes, op)
	return nil
}

func newExpenseFixture(t *testing.T) (*ExpenseService, *storage.MemoryRepository, *feed.Hub, *recordingPublisher) {
	t.Helper()
	repo := storage.NewMemoryRepository()
	hub := feed.NewHub()
	pub := &recordingPublisher{}
	return NewExpenseService(repo, hub, pub), repo, hub, pub
}

func waitSnapshot(t *testing.T, sub *feed.Subscription) []core.Expense {
	t.Helper()
	select {
	case snap := <-sub.C:
		return snap
	case <-time.After(time.Second):
		t.Fatalf("no snapshot broadcast")
		return nil
	}
}

func TestAddOrUpdateCreates(t *testing.T) {
	svc, _, hub, pub := newExpenseFixture(t)
	ctx := context.Background()
	sub := hub.Subscribe("u1")
	defer sub.Cancel()

	draft := core.Draft{Title: "Coffee", Amount: "4.50", Category: "Food", Date: "2024-02-01"}
	saved, err := svc.AddOrUpdate(ctx, "u1", draft, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if saved.ID == "" || saved.Amount.Cents != 450 {
		t.Fatalf("unexpected saved expense: %+v", saved)
	}

	snap := waitSnapshot(t, sub)
	if len(snap) != 1 || snap[0].ID != saved.ID {
		t.Fatalf("broadcast snapshot mismatch: %+v", snap)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.changes) != 1 || pub.changes[0] != amqp.OpCreate {
		t.Fatalf("published ops = %v, want [create]", pub.changes)
	}
}

func TestAddOrUpdateEdits(t *testing.T) {
	svc, _, _, pub := newExpenseFixture(t)
	ctx := context.Background()

	saved, err := svc.AddOrUpdate(ctx, "u1", core.Draft{Title: "Rent", Amount: "12000", Category: "Bills", Date: "2024-02-01"}, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	edited, err := svc.AddOrUpdate(ctx, "u1", core.Draft{Title: "Rent", Amount: "12500", Category: "Bills", Date: "2024-02-01"}, saved.ID)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.ID != saved.ID {
		t.Fatalf("edit must keep the id, got %q want %q", edited.ID, saved.ID)
	}
	if edited.Amount.Cents != 1250000 {
		t.Fatalf("amount = %d, want 1250000", edited.Amount.Cents)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.changes) != 2 || pub.changes[1] != amqp.OpUpdate {
		t.Fatalf("published ops = %v, want [create update]", pub.changes)
	}
}

func TestAddOrUpdateValidation(t *testing.T) {
	svc, repo, _, _ := newExpenseFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		draft   core.Draft
		wantErr error
	}{
		{name: "missing title", draft: core.Draft{Amount: "1", Category: "Food", Date: "2024-01-01"}, wantErr: core.ErrMissingFields},
		{name: "missing category", draft: core.Draft{Title: "x", Amount: "1", Date: "2024-01-01"}, wantErr: core.ErrMissingFields},
		{name: "bad amount", draft: core.Draft{Title: "x", Amount: "abc", Category: "Food", Date: "2024-01-01"}, wantErr: core.ErrInvalidAmount},
		{name: "bad date", draft: core.Draft{Title: "x", Amount: "1", Category: "Food", Date: "01-01-2024"}, wantErr: core.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddOrUpdate(ctx, "u1", tt.draft, ""); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	list, _ := repo.ListExpenses(ctx, "u1")
	if len(list) != 0 {
		t.Fatalf("rejected drafts must not be stored, found %d", len(list))
	}
}

func TestEditMissingExpense(t *testing.T) {
	svc, _, _, _ := newExpenseFixture(t)

	draft := core.Draft{Title: "x", Amount: "1", Category: "Food", Date: "2024-01-01"}
	if _, err := svc.AddOrUpdate(context.Background(), "u1", draft, "missing-id"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, _, hub, pub := newExpenseFixture(t)
	ctx := context.Background()

	saved, err := svc.AddOrUpdate(ctx, "u1", core.Draft{Title: "Snack", Amount: "2", Category: "Food", Date: "2024-01-01"}, "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	sub := hub.Subscribe("u1")
	defer sub.Cancel()

	if err := svc.Delete(ctx, "u1", saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	snap := waitSnapshot(t, sub)
	if len(snap) != 0 {
		t.Fatalf("snapshot after delete should be empty, got %d", len(snap))
	}

	if err := svc.Delete(ctx, "u1", saved.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.changes[len(pub.changes)-1] != amqp.OpDelete {
		t.Fatalf("last published op = %v, want delete", pub.changes)
	}
}

func TestWriteSucceedsWhenPublisherFails(t *testing.T) {
	svc, repo, _, pub := newExpenseFixture(t)
	pub.fail = true
	ctx := context.Background()

	saved, err := svc.AddOrUpdate(ctx, "u1", core.Draft{Title: "Bus", Amount: "30", Category: "Travel", Date: "2024-01-01"}, "")
	if err != nil {
		t.Fatalf("write must not fail on publish error: %v", err)
	}
	if _, err := repo.GetExpense(ctx, "u1", saved.ID); err != nil {
		t.Fatalf("expense should be stored: %v", err)
	}
}

func TestListSorted(t *testing.T) {
	svc, _, _, _ := newExpenseFixture(t)
	ctx := context.Background()

	for _, d := range []string{"2024-01-10", "2024-03-10", "2023-12-01"} {
		if _, err := svc.AddOrUpdate(ctx, "u1", core.Draft{Title: d, Amount: "1", Category: "Food", Date: d}, ""); err != nil {
			t.Fatalf("add %s: %v", d, err)
		}
	}

	list, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"2024-03-10", "2024-01-10", "2023-12-01"}
	for i, title := range want {
		if list[i].Title != title {
			t.Fatalf("position %d = %q, want %q", i, list[i].Title, title)
		}
	}
}

func TestNilPublisherAndHub(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := NewExpenseService(repo, nil, nil)

	if _, err := svc.AddOrUpdate(context.Background(), "u1", core.Draft{Title: "x", Amount: "1", Category: "Food", Date: "2024-01-01"}, ""); err != nil {
		t.Fatalf("write with nil hub and publisher: %v", err)
	}
}
