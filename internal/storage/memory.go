package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"kharcha/internal/core"
)

// DefaultCategories is the fixed category set used when no database seeds
// are available (memory backend, tests).
var DefaultCategories = []string{"Food", "Travel", "Shopping", "Bills", "Entertainment", "Health", "Other"}

// MemoryRepository is an in-memory Store used by tests and dev mode.
// It mirrors the SQLite repository's semantics, including not-found
// behaviour and expired-session handling.
type MemoryRepository struct {
	mu         sync.Mutex
	users      map[string]User      // by id
	emails     map[string]string    // email -> user id
	sessions   map[string]Session   // by id
	expenses   map[string][]core.Expense // by user id
	categories []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:      make(map[string]User),
		emails:     make(map[string]string),
		sessions:   make(map[string]Session),
		expenses:   make(map[string][]core.Expense),
		categories: append([]string(nil), DefaultCategories...),
	}
}

func (m *MemoryRepository) Close() error { return nil }

func (m *MemoryRepository) CreateExpense(_ context.Context, userID string, e core.Expense) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	e.ID = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now
	m.expenses[userID] = append(m.expenses[userID], e)
	return e, nil
}

func (m *MemoryRepository) UpdateExpense(_ context.Context, userID, id string, e core.Expense) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.expenses[userID]
	for i, cur := range list {
		if cur.ID == id {
			e.ID = cur.ID
			e.CreatedAt = cur.CreatedAt
			e.UpdatedAt = time.Now().UTC()
			list[i] = e
			return e, nil
		}
	}
	return core.Expense{}, core.ErrNotFound
}

func (m *MemoryRepository) DeleteExpense(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.expenses[userID]
	for i, cur := range list {
		if cur.ID == id {
			m.expenses[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (m *MemoryRepository) GetExpense(_ context.Context, userID, id string) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cur := range m.expenses[userID] {
		if cur.ID == id {
			return cur, nil
		}
	}
	return core.Expense{}, core.ErrNotFound
}

func (m *MemoryRepository) ListExpenses(_ context.Context, userID string) ([]core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]core.Expense, len(m.expenses[userID]))
	copy(out, m.expenses[userID])
	core.SortByDateDesc(out)
	return out, nil
}

func (m *MemoryRepository) GetProfile(_ context.Context, uid string) (core.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[uid]
	if !ok {
		return core.Profile{}, core.ErrNotFound
	}
	return core.Profile{UID: u.ID, Name: u.Name, Email: u.Email}, nil
}

func (m *MemoryRepository) UpdateProfileName(_ context.Context, uid, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[uid]
	if !ok {
		return core.ErrNotFound
	}
	u.Name = name
	u.UpdatedAt = time.Now().UTC()
	m.users[uid] = u
	return nil
}

func (m *MemoryRepository) CreateUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.emails[u.Email]; exists {
		return ErrDuplicateEmail
	}
	m.users[u.ID] = u
	m.emails[u.Email] = u.ID
	return nil
}

func (m *MemoryRepository) GetUserByEmail(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.emails[email]
	if !ok {
		return User{}, core.ErrNotFound
	}
	return m.users[id], nil
}

func (m *MemoryRepository) CreateSession(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryRepository) GetSession(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || !s.ExpiresAt.After(time.Now().UTC()) {
		return Session{}, core.ErrNotFound
	}
	return s, nil
}

func (m *MemoryRepository) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

func (m *MemoryRepository) DeleteExpiredSessions(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	now := time.Now().UTC()
	for id, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) ListCategories(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.categories...), nil
}

var _ Store = (*MemoryRepository)(nil)
