// Package memory provides an in-memory snapshot destination used by tests
// and local development without Google credentials.
package memory

import (
	"context"
	"sync"

	"kharcha/internal/core"
	ports "kharcha/internal/export"
)

type Writer struct {
	mu        sync.Mutex
	snapshots map[string][]core.Expense
	writes    int
	failWith  error
}

var _ ports.SnapshotWriter = (*Writer)(nil)

func NewWriter() *Writer {
	return &Writer{snapshots: make(map[string][]core.Expense)}
}

// FailWith makes every subsequent write return err. Pass nil to recover.
func (w *Writer) FailWith(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failWith = err
}

func (w *Writer) WriteSnapshot(_ context.Context, userID string, expenses []core.Expense) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.failWith != nil {
		return w.failWith
	}

	cp := make([]core.Expense, len(expenses))
	copy(cp, expenses)
	w.snapshots[userID] = cp
	w.writes++
	return nil
}

// Snapshot returns the last written snapshot for a user.
func (w *Writer) Snapshot(userID string) []core.Expense {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshots[userID]
}

// Writes reports the number of successful writes.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
