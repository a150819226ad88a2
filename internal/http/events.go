package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"kharcha/internal/auth"
	"kharcha/internal/core"
)

const sseKeepAliveInterval = 25 * time.Second

// handleEvents streams expense snapshots over Server-Sent Events. Each
// broadcast is rendered server-side and delivered as a complete replacement
// fragment; the browser swaps the whole table, never patches rows.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := s.hub.Subscribe(userID)
	defer sub.Cancel()
	s.recorder.SetActiveSubscriptions(s.hub.SubscriberCount(userID))

	slog.InfoContext(r.Context(), "SSE subscription opened", "user_id", userID)
	defer func() {
		slog.InfoContext(r.Context(), "SSE subscription closed", "user_id", userID)
		s.recorder.SetActiveSubscriptions(s.hub.SubscriberCount(userID))
	}()

	// Send the current state immediately so a reconnecting client does not
	// wait for the next write.
	var current []core.Expense
	if list, err := s.expenses.List(r.Context(), userID); err == nil {
		current = core.Reconcile(current, list)
		s.writeEvent(w, flusher, "expenses", buildExpensesView(current))
	}

	keepAlive := time.NewTicker(sseKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case snapshot, ok := <-sub.C:
			if !ok {
				return
			}
			// Each snapshot fully replaces the previous state.
			current = core.Reconcile(current, snapshot)
			s.recorder.RecordBroadcast(s.hub.SubscriberCount(userID))
			s.writeEvent(w, flusher, "expenses", buildExpensesView(current))
		}
	}
}

// writeEvent renders the expenses partial and frames it as one SSE event.
func (s *Server) writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, view expensesView) {
	if s.templates == nil {
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "expenses.html", view); err != nil {
		slog.Error("SSE template execution failed", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", event)
	// SSE data must be single-line framed; split the fragment across data lines.
	for _, line := range strings.Split(buf.String(), "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
	flusher.Flush()
}
