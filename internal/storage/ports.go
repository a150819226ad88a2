package storage

import (
	"context"
	"errors"
	"time"

	"kharcha/internal/core"
)

// ErrDuplicateEmail is returned by CreateUser when the address is already
// registered.
var ErrDuplicateEmail = errors.New("email already registered")

// User is an account record. PasswordHash is a bcrypt hash, never the
// plain password.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is a server-side login session referenced by an HTTP-only cookie.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Ports for the persistence layer. The SQLite repository implements all of
// them; the memory repository backs tests and dev mode.
type (
	ExpenseStore interface {
		// CreateExpense stores a new expense for the user, assigning the
		// record ID and createdAt/updatedAt timestamps. The stored record
		// is returned.
		CreateExpense(ctx context.Context, userID string, e core.Expense) (core.Expense, error)

		// UpdateExpense issues a partial update against an existing record
		// and refreshes updatedAt. Returns core.ErrNotFound when the record
		// does not belong to the user or no longer exists.
		UpdateExpense(ctx context.Context, userID, id string, e core.Expense) (core.Expense, error)

		// DeleteExpense removes the record. Returns core.ErrNotFound when
		// nothing was deleted.
		DeleteExpense(ctx context.Context, userID, id string) error

		// GetExpense is a point read of a single record.
		GetExpense(ctx context.Context, userID, id string) (core.Expense, error)

		// ListExpenses returns the user's full collection sorted newest
		// first.
		ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
	}

	ProfileStore interface {
		// GetProfile is a point read of the user's profile document.
		// Returns core.ErrNotFound when the user does not exist.
		GetProfile(ctx context.Context, uid string) (core.Profile, error)

		// UpdateProfileName persists a new display name.
		UpdateProfileName(ctx context.Context, uid, name string) error
	}

	UserStore interface {
		CreateUser(ctx context.Context, u User) error
		// GetUserByEmail returns core.ErrNotFound for unknown addresses.
		GetUserByEmail(ctx context.Context, email string) (User, error)
	}

	SessionStore interface {
		CreateSession(ctx context.Context, s Session) error
		// GetSession returns core.ErrNotFound for unknown or expired
		// sessions.
		GetSession(ctx context.Context, id string) (Session, error)
		DeleteSession(ctx context.Context, id string) error
		DeleteExpiredSessions(ctx context.Context) (int64, error)
	}

	CategoryStore interface {
		// ListCategories returns the fixed category set in seed order.
		ListCategories(ctx context.Context) ([]string, error)
	}
)

// Store is the unified persistence interface the application wires up.
type Store interface {
	ExpenseStore
	ProfileStore
	UserStore
	SessionStore
	CategoryStore
	Close() error
}
