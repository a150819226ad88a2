// Package worker mirrors expense collections to the export destination in
// response to change messages from the queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	"kharcha/internal/export"
	"kharcha/internal/storage"
)

// ExportWorker re-exports a user's full collection whenever any of their
// expenses changes. Failed exports are remembered and retried periodically,
// so a destination outage only delays convergence.
type ExportWorker struct {
	store  storage.ExpenseStore
	writer export.SnapshotWriter

	batchSize int

	mu    sync.Mutex
	dirty map[string]struct{}
}

func NewExportWorker(store storage.ExpenseStore, writer export.SnapshotWriter, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ExportWorker{
		store:     store,
		writer:    writer,
		batchSize: batchSize,
		dirty:     make(map[string]struct{}),
	}
}

// HandleChangeMessage processes a single change message from the queue.
// The message only identifies the user; the current collection is always
// read back from storage so replayed or reordered deliveries converge.
func (w *ExportWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ExpenseChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"user_id", msg.UserID,
		"expense_id", msg.ExpenseID,
		"op", msg.Op)

	if err := w.exportUser(ctx, msg.UserID); err != nil {
		w.markDirty(msg.UserID)
		return fmt.Errorf("export collection: %w", err)
	}
	return nil
}

// RetryLoop periodically re-exports users whose last export failed. It runs
// until the context ends.
func (w *ExportWorker) RetryLoop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.retryDirty(ctx)
		}
	}
}

func (w *ExportWorker) retryDirty(ctx context.Context) {
	users := w.takeDirty(w.batchSize)
	if len(users) == 0 {
		return
	}

	slog.InfoContext(ctx, "Retrying failed exports", "users", len(users))

	for _, userID := range users {
		if err := w.exportUser(ctx, userID); err != nil {
			slog.ErrorContext(ctx, "Retry export failed", "user_id", userID, "error", err)
			w.markDirty(userID)
		}
	}
}

func (w *ExportWorker) exportUser(ctx context.Context, userID string) error {
	list, err := w.store.ListExpenses(ctx, userID)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	core.SortByDateDesc(list)

	if err := w.writer.WriteSnapshot(ctx, userID, list); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Collection exported",
		"user_id", userID,
		"expenses", len(list))
	return nil
}

func (w *ExportWorker) markDirty(userID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dirty[userID] = struct{}{}
}

func (w *ExportWorker) takeDirty(limit int) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	users := make([]string, 0, limit)
	for userID := range w.dirty {
		if len(users) == limit {
			break
		}
		users = append(users, userID)
		delete(w.dirty, userID)
	}
	return users
}

// DirtyCount reports how many users await a retry.
func (w *ExportWorker) DirtyCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirty)
}
