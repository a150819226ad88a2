package http

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"kharcha/internal/auth"
	"kharcha/internal/core"
)

// handleDashboard renders the full dashboard page: profile header, the add
// form, the expense table and the chart.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	list, err := s.expenses.List(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses error", "error", err, "user_id", userID)
		http.Error(w, "could not load expenses", http.StatusInternalServerError)
		return
	}

	categories, err := s.categories.ListCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories error", "error", err)
	}

	data := dashboardView{
		Theme:      currentTheme(r),
		Name:       s.profiles.LoadName(r.Context(), userID),
		Categories: categories,
		Expenses:   buildExpensesView(list),
	}
	s.render(w, r, "dashboard.html", data)
}

// handleSaveExpense creates a new expense, or overwrites an existing one
// when the form carries an editing_id.
func (s *Server) handleSaveExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="form-error">Invalid request format</div>`))
		return
	}

	draft := core.Draft{
		Title:    sanitizeInput(r.Form.Get("title")),
		Amount:   sanitizeInput(r.Form.Get("amount")),
		Category: sanitizeInput(r.Form.Get("category")),
		Date:     sanitizeInput(r.Form.Get("date")),
		Comments: sanitizeInput(r.Form.Get("comments")),
	}
	editingID := sanitizeInput(r.Form.Get("editing_id"))

	saved, err := s.expenses.AddOrUpdate(r.Context(), userID, draft, editingID)
	if err != nil {
		status, msg := saveErrorResponse(err)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`<div class="form-error">` + template.HTMLEscapeString(msg) + `</div>`))
		return
	}

	op := "expense:created"
	if editingID != "" {
		op = "expense:updated"
	}
	s.recorder.RecordExpenseWrite(opLabel(editingID))
	w.Header().Set("HX-Trigger", fmt.Sprintf(`{"%s": {"id": %q}}`, op, saved.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="form-success">Saved: ` +
		template.HTMLEscapeString(saved.Title) +
		` (` + template.HTMLEscapeString(formatRupees(saved.Amount.Cents)) + `)</div>`))
}

func opLabel(editingID string) string {
	if editingID == "" {
		return "create"
	}
	return "update"
}

func saveErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrMissingFields):
		return http.StatusUnprocessableEntity, "Please fill in title, amount, category and date."
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, "Amount must be a positive number."
	case errors.Is(err, core.ErrInvalidDate):
		return http.StatusUnprocessableEntity, "Date must be in YYYY-MM-DD format."
	case errors.Is(err, core.ErrEmptyTitle), errors.Is(err, core.ErrEmptyCategory):
		return http.StatusUnprocessableEntity, "Please fill in all required fields."
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "This expense no longer exists."
	default:
		return http.StatusInternalServerError, "Could not save the expense."
	}
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	id := sanitizeInput(r.Form.Get("id"))
	if err := s.expenses.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<div class="form-error">This expense no longer exists.</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Delete expense error", "error", err, "id", id, "user_id", userID)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="form-error">Could not delete the expense.</div>`))
		return
	}

	s.recorder.RecordExpenseWrite("delete")
	w.Header().Set("HX-Trigger", fmt.Sprintf(`{"expense:deleted": {"id": %q}}`, id))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRenameProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	if err := s.profiles.Rename(r.Context(), userID, name); err != nil {
		if errors.Is(err, core.ErrEmptyName) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="form-error">Name cannot be empty.</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Rename profile error", "error", err, "user_id", userID)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="form-error">Could not update the name.</div>`))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<span id="profile-name" class="profile-name">` + template.HTMLEscapeString(name) + `</span>`))
}

// handleExpensesPartial renders the table and chart partial for htmx swaps.
func (s *Server) handleExpensesPartial(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	list, err := s.expenses.List(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses error", "error", err, "user_id", userID)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="placeholder">Could not load expenses</div>`))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.render(w, r, "expenses.html", buildExpensesView(list))
}
