package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"kharcha/internal/auth"
)

type authPageView struct {
	Theme string
	Error string
	Email string
}

// handleLanding serves the landing page, or sends signed-in users straight
// to the dashboard.
func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.signedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	s.render(w, r, "landing.html", authPageView{Theme: currentTheme(r)})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "signup.html", authPageView{Theme: currentTheme(r)})
	case http.MethodPost:
		s.handleSignupPost(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSignupPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")

	session, err := s.authService.SignUp(r.Context(), email, password)
	if err != nil {
		msg := "Could not create the account."
		switch {
		case errors.Is(err, auth.ErrInvalidEmail):
			msg = "Please enter a valid email address."
		case errors.Is(err, auth.ErrWeakPassword):
			msg = "Password must be at least 6 characters."
		case errors.Is(err, auth.ErrEmailTaken):
			msg = "An account with this email already exists."
		default:
			slog.ErrorContext(r.Context(), "Signup failed", "error", err)
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "signup.html", authPageView{Theme: currentTheme(r), Error: msg, Email: email})
		return
	}

	auth.SetSessionCookie(w, session.ID, session.ExpiresAt)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "login.html", authPageView{Theme: currentTheme(r)})
	case http.MethodPost:
		s.handleLoginPost(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")

	session, err := s.authService.SignIn(r.Context(), email, password)
	if err != nil {
		// One generic message regardless of which credential was wrong.
		msg := "Invalid email or password."
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			slog.ErrorContext(r.Context(), "Login failed", "error", err)
			msg = "Could not sign in. Please try again."
		}
		w.WriteHeader(http.StatusUnauthorized)
		s.render(w, r, "login.html", authPageView{Theme: currentTheme(r), Error: msg, Email: email})
		return
	}

	auth.SetSessionCookie(w, session.ID, session.ExpiresAt)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		if err := s.authService.Logout(r.Context(), cookie.Value); err != nil {
			slog.ErrorContext(r.Context(), "Logout failed", "error", err)
		}
	}
	auth.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleTheme flips the light/dark cookie and sends the browser back.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	next := "dark"
	if currentTheme(r) == "dark" {
		next = "light"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     themeCookieName,
		Value:    next,
		Path:     "/",
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		SameSite: http.SameSiteLaxMode,
	})

	referer := r.Header.Get("Referer")
	if referer == "" {
		referer = "/"
	}
	http.Redirect(w, r, referer, http.StatusSeeOther)
}

// signedIn reports whether the request carries a valid session.
func (s *Server) signedIn(r *http.Request) bool {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	_, err = s.authService.CurrentUserID(r.Context(), cookie.Value)
	return err == nil
}

// render executes a page template, falling back to a plain error when the
// templates failed to load.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
	}
}
