package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kharcha/internal/core"
	"kharcha/internal/storage"
)

func newTestService() (*Service, *storage.MemoryRepository) {
	repo := storage.NewMemoryRepository()
	svc := NewService(repo, repo, ServiceConfig{SessionMaxAge: time.Hour})
	return svc, repo
}

func TestSignUp(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: "a@example.com", password: "secret1"},
		{name: "invalid email", email: "not-an-email", password: "secret1", wantErr: ErrInvalidEmail},
		{name: "short password", email: "b@example.com", password: "abc", wantErr: ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			session, err := svc.SignUp(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("sign up: %v", err)
			}
			if len(session.ID) != 64 {
				t.Fatalf("expected 64-char hex session id, got %d chars", len(session.ID))
			}

			user, err := repo.GetUserByEmail(context.Background(), tt.email)
			if err != nil {
				t.Fatalf("fetch user: %v", err)
			}
			if user.Name != core.DefaultProfileName {
				t.Fatalf("new account name = %q, want %q", user.Name, core.DefaultProfileName)
			}
			if user.PasswordHash == tt.password {
				t.Fatalf("password stored in plain text")
			}
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "a@example.com", "secret1"); err != nil {
		t.Fatalf("first sign up: %v", err)
	}
	if _, err := svc.SignUp(ctx, "A@Example.com", "another1"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignIn(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.SignUp(ctx, "a@example.com", "secret1"); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid", email: "a@example.com", password: "secret1"},
		{name: "case insensitive email", email: "A@EXAMPLE.COM", password: "secret1"},
		{name: "wrong password", email: "a@example.com", password: "wrong99", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "none@example.com", password: "secret1", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignIn(ctx, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	session, err := svc.SignUp(ctx, "a@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	userID, err := svc.CurrentUserID(ctx, session.ID)
	if err != nil {
		t.Fatalf("resolve session: %v", err)
	}
	if userID != session.UserID {
		t.Fatalf("resolved user %q, want %q", userID, session.UserID)
	}

	if err := svc.Logout(ctx, session.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.CurrentUserID(ctx, session.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after logout, got %v", err)
	}

	// Logout on an already destroyed session is a no-op
	if err := svc.Logout(ctx, session.ID); err != nil {
		t.Fatalf("repeat logout: %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	now := time.Now().UTC()
	if err := repo.CreateSession(ctx, storage.Session{ID: "old", UserID: "u1", ExpiresAt: now.Add(-time.Minute), CreatedAt: now}); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if err := svc.PurgeExpired(ctx); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, err := repo.GetSession(ctx, "old"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expired session should be gone, got %v", err)
	}
}

func TestRequireSession(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	session, err := svc.SignUp(ctx, "a@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	var gotUserID string
	handler := RequireSession(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.ID})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if gotUserID != session.UserID {
			t.Fatalf("context user %q, want %q", gotUserID, session.UserID)
		}
	})

	t.Run("missing cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/login" {
			t.Fatalf("redirect to %q, want /login", loc)
		}
	})

	t.Run("stale session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "0000"})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", w.Code)
		}
	})
}
