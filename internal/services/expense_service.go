// Package services provides business logic and orchestration between the
// storage layer, the live snapshot feed and the message queue.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	"kharcha/internal/feed"
	"kharcha/internal/storage"
)

// ChangePublisher publishes expense change notifications. *amqp.Client
// satisfies it; a nil publisher disables queue integration.
type ChangePublisher interface {
	PublishExpenseChange(ctx context.Context, userID, expenseID, op string) error
}

// ExpenseService orchestrates expense writes. Every committed write reloads
// the user's full collection and broadcasts it; readers never see a locally
// patched list, only what storage returned.
type ExpenseService struct {
	store     storage.ExpenseStore
	hub       *feed.Hub
	publisher ChangePublisher
}

// NewExpenseService creates the service. publisher may be nil.
func NewExpenseService(store storage.ExpenseStore, hub *feed.Hub, publisher ChangePublisher) *ExpenseService {
	return &ExpenseService{store: store, hub: hub, publisher: publisher}
}

// AddOrUpdate validates a draft and either creates a new expense or, when
// editingID is set, overwrites the fields of an existing one. The returned
// expense reflects the stored state.
func (s *ExpenseService) AddOrUpdate(ctx context.Context, userID string, draft core.Draft, editingID string) (core.Expense, error) {
	expense, err := draft.ToExpense()
	if err != nil {
		return core.Expense{}, err
	}

	var saved core.Expense
	op := amqp.OpCreate
	if editingID == "" {
		saved, err = s.store.CreateExpense(ctx, userID, expense)
		if err != nil {
			return core.Expense{}, fmt.Errorf("save expense: %w", err)
		}
	} else {
		op = amqp.OpUpdate
		saved, err = s.store.UpdateExpense(ctx, userID, editingID, expense)
		if err != nil {
			return core.Expense{}, fmt.Errorf("update expense: %w", err)
		}
	}

	s.afterWrite(ctx, userID, saved.ID, op)
	return saved, nil
}

// Delete removes an expense owned by the user.
func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.afterWrite(ctx, userID, id, amqp.OpDelete)
	return nil
}

// List returns the user's full collection sorted newest first.
func (s *ExpenseService) List(ctx context.Context, userID string) ([]core.Expense, error) {
	list, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	core.SortByDateDesc(list)
	return list, nil
}

// Get returns a single expense owned by the user.
func (s *ExpenseService) Get(ctx context.Context, userID, id string) (core.Expense, error) {
	expense, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return expense, nil
}

// afterWrite broadcasts the post-commit snapshot and publishes a change
// message. Neither failure rolls back the write; the record is already in
// storage and the next reload converges.
func (s *ExpenseService) afterWrite(ctx context.Context, userID, expenseID, op string) {
	if s.hub != nil {
		snapshot, err := s.List(ctx, userID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to reload snapshot after write",
				"user_id", userID, "error", err)
		} else {
			s.hub.Broadcast(userID, snapshot)
		}
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseChange(ctx, userID, expenseID, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"user_id", userID,
			"expense_id", expenseID,
			"op", op,
			"error", err)
	}
}
