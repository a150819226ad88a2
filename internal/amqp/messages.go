package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Change operations carried on the queue.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ExpenseChangeMessage is a lightweight notification that a user's expense
// collection changed. It carries identifiers only; consumers fetch the
// current collection from the database, which keeps processing idempotent.
type ExpenseChangeMessage struct {
	UserID    string    `json:"user_id"`
	ExpenseID string    `json:"expense_id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseChangeMessage creates a change message stamped with the current time.
func NewExpenseChangeMessage(userID, expenseID, op string) *ExpenseChangeMessage {
	return &ExpenseChangeMessage{
		UserID:    userID,
		ExpenseID: expenseID,
		Op:        op,
		Timestamp: time.Now(),
	}
}

// Validate checks the message carries a known operation and a user.
func (m *ExpenseChangeMessage) Validate() error {
	if m.UserID == "" {
		return fmt.Errorf("change message missing user_id")
	}
	switch m.Op {
	case OpCreate, OpUpdate, OpDelete:
		return nil
	default:
		return fmt.Errorf("unknown change operation %q", m.Op)
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ExpenseChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseChangeMessageFromJSON parses a message from JSON bytes.
func ExpenseChangeMessageFromJSON(data []byte) (*ExpenseChangeMessage, error) {
	var msg ExpenseChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
