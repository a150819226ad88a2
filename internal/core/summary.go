package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// PieSlice is one entry of the per-expense pie series (one slice per record,
// labeled by title, no aggregation).
type PieSlice struct {
	ID    string
	Label string
	Value Money
}

// Total sums the amounts of all expenses in the list. An empty or nil list
// totals zero.
func Total(list []Expense) Money {
	var cents int64
	for _, e := range list {
		cents += e.Amount.Cents
	}
	return Money{Cents: cents}
}

// CategoryBreakdown groups the list by category, summing amounts per group.
// Groups are returned sorted alphabetically by category name so the result
// is deterministic.
func CategoryBreakdown(list []Expense) []CategoryAmount {
	sums := make(map[string]int64)
	for _, e := range list {
		sums[e.Category] += e.Amount.Cents
	}
	out := make([]CategoryAmount, 0, len(sums))
	for name, cents := range sums {
		out = append(out, CategoryAmount{Name: name, Amount: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PieSlices returns one slice per expense, labeled by title.
func PieSlices(list []Expense) []PieSlice {
	out := make([]PieSlice, 0, len(list))
	for _, e := range list {
		out = append(out, PieSlice{ID: e.ID, Label: e.Title, Value: e.Amount})
	}
	return out
}

// SortByDateDesc orders the list newest first. Equal dates fall back to
// CreatedAt (newest first), then ID, so the order is stable across
// snapshots.
func SortByDateDesc(list []Expense) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// Reconcile replaces the previous local list with the new snapshot, sorted
// newest first. There is no merging or conflict resolution: the snapshot is
// authoritative and the previous list is discarded.
func Reconcile(prev, snapshot []Expense) []Expense {
	_ = prev
	next := make([]Expense, len(snapshot))
	copy(next, snapshot)
	SortByDateDesc(next)
	return next
}
