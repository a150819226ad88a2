package core

import (
	"errors"
	"strings"
	"time"
)

// DefaultProfileName is used when a profile has no stored name yet.
const DefaultProfileName = "User"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is a single spending record owned by exactly one user.
	// ID is assigned by the storage layer on create.
	Expense struct {
		ID        string
		Title     string
		Amount    Money
		Category  string
		Date      Date
		Comments  string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Profile is the per-user profile document.
	Profile struct {
		UID   string
		Name  string
		Email string
	}

	// Draft holds unsaved form input for the expense being created or
	// edited. All fields are raw strings as submitted.
	Draft struct {
		Title    string
		Amount   string
		Category string
		Date     string
		Comments string
	}
)

var (
	ErrMissingFields = errors.New("title, amount, category and date are required")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyTitle    = errors.New("empty title")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyName     = errors.New("name cannot be empty")
	ErrNotFound      = errors.New("not found")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date back in YYYY-MM-DD form.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Validate checks that the required draft fields are present. Amount and
// date syntax are checked separately by ParseDecimalToCents and ParseDate
// so callers can report a precise error.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" ||
		strings.TrimSpace(d.Amount) == "" ||
		strings.TrimSpace(d.Category) == "" ||
		strings.TrimSpace(d.Date) == "" {
		return ErrMissingFields
	}
	return nil
}

// ToExpense converts a validated draft into an Expense value. ID and
// timestamps are left for the storage layer to assign.
func (d Draft) ToExpense() (Expense, error) {
	if err := d.Validate(); err != nil {
		return Expense{}, err
	}
	cents, err := ParseDecimalToCents(d.Amount)
	if err != nil {
		return Expense{}, err
	}
	date, err := ParseDate(d.Date)
	if err != nil {
		return Expense{}, err
	}
	return Expense{
		Title:    strings.TrimSpace(d.Title),
		Amount:   Money{Cents: cents},
		Category: strings.TrimSpace(d.Category),
		Date:     date,
		Comments: strings.TrimSpace(d.Comments),
	}, nil
}

// ValidateProfileName rejects empty or whitespace-only profile names.
func ValidateProfileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}
