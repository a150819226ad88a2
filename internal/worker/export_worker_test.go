package worker

import (
	"context"
	"errors"
	"testing"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	exportmemory "kharcha/internal/export/memory"
	"kharcha/internal/storage"
)

func seedExpenses(t *testing.T, repo *storage.MemoryRepository, userID string, dates ...string) []core.Expense {
	t.Helper()
	out := make([]core.Expense, 0, len(dates))
	for _, d := range dates {
		date, err := core.ParseDate(d)
		if err != nil {
			t.Fatalf("parse date %s: %v", d, err)
		}
		e, err := repo.CreateExpense(context.Background(), userID, core.Expense{
			Title:    d,
			Amount:   core.Money{Cents: 100},
			Category: "Food",
			Date:     date,
		})
		if err != nil {
			t.Fatalf("seed expense: %v", err)
		}
		out = append(out, e)
	}
	return out
}

func TestHandleChangeMessage(t *testing.T) {
	repo := storage.NewMemoryRepository()
	writer := exportmemory.NewWriter()
	w := NewExportWorker(repo, writer, 10)
	ctx := context.Background()

	seedExpenses(t, repo, "u1", "2024-01-01", "2024-03-01")

	msg := amqp.NewExpenseChangeMessage("u1", "whatever", amqp.OpCreate)
	if err := w.HandleChangeMessage(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	snap := writer.Snapshot("u1")
	if len(snap) != 2 {
		t.Fatalf("exported %d rows, want 2", len(snap))
	}
	if snap[0].Title != "2024-03-01" {
		t.Fatalf("export not sorted newest first: %+v", snap)
	}
}

func TestHandleChangeMessageReplacesSnapshot(t *testing.T) {
	repo := storage.NewMemoryRepository()
	writer := exportmemory.NewWriter()
	w := NewExportWorker(repo, writer, 10)
	ctx := context.Background()

	created := seedExpenses(t, repo, "u1", "2024-01-01", "2024-02-01")
	msg := amqp.NewExpenseChangeMessage("u1", created[0].ID, amqp.OpCreate)
	if err := w.HandleChangeMessage(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if err := repo.DeleteExpense(ctx, "u1", created[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	msg = amqp.NewExpenseChangeMessage("u1", created[0].ID, amqp.OpDelete)
	if err := w.HandleChangeMessage(ctx, msg); err != nil {
		t.Fatalf("handle delete: %v", err)
	}

	snap := writer.Snapshot("u1")
	if len(snap) != 1 || snap[0].ID != created[1].ID {
		t.Fatalf("snapshot should hold only the remaining expense: %+v", snap)
	}
}

func TestFailedExportIsRetried(t *testing.T) {
	repo := storage.NewMemoryRepository()
	writer := exportmemory.NewWriter()
	w := NewExportWorker(repo, writer, 10)
	ctx := context.Background()

	seedExpenses(t, repo, "u1", "2024-01-01")

	writer.FailWith(errors.New("destination down"))
	msg := amqp.NewExpenseChangeMessage("u1", "e1", amqp.OpCreate)
	if err := w.HandleChangeMessage(ctx, msg); err == nil {
		t.Fatal("expected error while destination is down")
	}
	if w.DirtyCount() != 1 {
		t.Fatalf("dirty count = %d, want 1", w.DirtyCount())
	}

	writer.FailWith(nil)
	w.retryDirty(ctx)

	if w.DirtyCount() != 0 {
		t.Fatalf("dirty count after retry = %d, want 0", w.DirtyCount())
	}
	if len(writer.Snapshot("u1")) != 1 {
		t.Fatalf("snapshot missing after retry")
	}
}

func TestRetryBatchLimit(t *testing.T) {
	repo := storage.NewMemoryRepository()
	writer := exportmemory.NewWriter()
	w := NewExportWorker(repo, writer, 2)

	for _, u := range []string{"u1", "u2", "u3"} {
		w.markDirty(u)
	}

	w.retryDirty(context.Background())

	if w.DirtyCount() != 1 {
		t.Fatalf("dirty count = %d, want 1 left after batch of 2", w.DirtyCount())
	}
}
