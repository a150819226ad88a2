// Package auth provides password-based account management and session
// handling backed by the storage layer.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"kharcha/internal/core"
	"kharcha/internal/storage"
)

// ErrInvalidCredentials is returned for any sign-in failure. It deliberately
// does not distinguish an unknown email from a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrEmailTaken is returned when a sign-up uses an already registered email.
var ErrEmailTaken = errors.New("an account with this email already exists")

// ErrWeakPassword is returned when the password does not meet the minimum length.
var ErrWeakPassword = errors.New("password must be at least 6 characters")

// ErrInvalidEmail is returned when the email address cannot be parsed.
var ErrInvalidEmail = errors.New("invalid email address")

const minPasswordLength = 6

// ServiceConfig holds authentication settings.
type ServiceConfig struct {
	SessionMaxAge time.Duration
}

// Service implements sign-up, sign-in and session lifecycle.
type Service struct {
	users    storage.UserStore
	sessions storage.SessionStore
	config   ServiceConfig
}

// NewService creates a Service on top of the given stores.
func NewService(users storage.UserStore, sessions storage.SessionStore, config ServiceConfig) *Service {
	return &Service{users: users, sessions: sessions, config: config}
}

// SignUp registers a new account and opens a session for it.
// The profile name starts as the default and can be changed later.
func (s *Service) SignUp(ctx context.Context, email, password string) (storage.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return storage.Session{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return storage.Session{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return storage.Session{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := storage.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         core.DefaultProfileName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return storage.Session{}, ErrEmailTaken
		}
		return storage.Session{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", email))

	return s.createSession(ctx, user.ID)
}

// SignIn verifies the credentials and opens a session.
// All failures surface as ErrInvalidCredentials.
func (s *Service) SignIn(ctx context.Context, email, password string) (storage.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return storage.Session{}, ErrInvalidCredentials
		}
		return storage.Session{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return storage.Session{}, ErrInvalidCredentials
	}

	slog.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return s.createSession(ctx, user.ID)
}

// Logout destroys the session.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	slog.InfoContext(ctx, "user logged out", slog.String("session_id", sessionID))
	return nil
}

// CurrentUserID resolves a session ID to its user.
// Expired or unknown sessions return core.ErrNotFound.
func (s *Service) CurrentUserID(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", core.ErrNotFound
	}
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.ErrNotFound
		}
		return "", fmt.Errorf("find session: %w", err)
	}
	return session.UserID, nil
}

// PurgeExpired removes expired sessions. Intended for periodic invocation.
func (s *Service) PurgeExpired(ctx context.Context) error {
	n, err := s.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "expired sessions purged", slog.Int64("count", n))
	}
	return nil
}

func (s *Service) createSession(ctx context.Context, userID string) (storage.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return storage.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	now := time.Now().UTC()
	session := storage.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(s.config.SessionMaxAge),
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return storage.Session{}, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// generateSessionID returns a cryptographically random 256-bit identifier.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
