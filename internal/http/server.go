// Package http serves the web UI: authentication pages, the expense
// dashboard with live updates, and the operational endpoints.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"kharcha/internal/auth"
	"kharcha/internal/feed"
	"kharcha/internal/metrics"
	"kharcha/internal/services"
	"kharcha/internal/storage"
	appweb "kharcha/web"
)

type Server struct {
	http.Server
	templates *template.Template

	authService *auth.Service
	expenses    *services.ExpenseService
	profiles    *services.ProfileService
	categories  storage.CategoryStore
	hub         *feed.Hub
	recorder    metrics.Recorder

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Options bundles the collaborators of the server.
type Options struct {
	Addr        string
	AuthService *auth.Service
	Expenses    *services.ExpenseService
	Profiles    *services.ProfileService
	Categories  storage.CategoryStore
	Hub         *feed.Hub
	Recorder    metrics.Recorder
	Gatherer    prometheus.Gatherer
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	mux := http.NewServeMux()

	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.Noop{}
	}

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		authService: opts.AuthService,
		expenses:    opts.Expenses,
		profiles:    opts.Profiles,
		categories:  opts.Categories,
		hub:         opts.Hub,
		recorder:    recorder,
		rateLimiter: newRateLimiter(),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	requireSession := auth.RequireSession(opts.AuthService)
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return s.withSecurityHeaders(func(w http.ResponseWriter, r *http.Request) {
			requireSession(http.HandlerFunc(h)).ServeHTTP(w, r)
		})
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleLanding))
	mux.HandleFunc("/signup", s.withSecurityHeaders(s.handleSignup))
	mux.HandleFunc("/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("/logout", s.withSecurityHeaders(s.handleLogout))
	mux.HandleFunc("/theme", s.withSecurityHeaders(s.handleTheme))

	mux.HandleFunc("/dashboard", protected(s.handleDashboard))
	mux.HandleFunc("/expenses", protected(s.handleSaveExpense))
	mux.HandleFunc("/expenses/delete", protected(s.handleDeleteExpense))
	mux.HandleFunc("/profile/name", protected(s.handleRenameProfile))
	mux.HandleFunc("/ui/expenses", protected(s.handleExpensesPartial))
	mux.HandleFunc("/events", protected(s.handleEvents))

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	if opts.Gatherer != nil {
		mux.Handle("/metrics", metrics.Handler(opts.Gatherer))
	}

	return s
}

// Shutdown gracefully stops the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting and request
// logging to a handler.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.recorder.RecordHTTPRequest(rw.statusCode, duration)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so streaming responses work.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
