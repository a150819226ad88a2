package core

import (
	"testing"
	"time"
)

func exp(id, title, category, date string, cents int64) Expense {
	d, _ := ParseDate(date)
	return Expense{ID: id, Title: title, Amount: Money{Cents: cents}, Category: category, Date: d}
}

func TestTotal(t *testing.T) {
	if got := Total(nil); got.Cents != 0 {
		t.Fatalf("empty list total = %d, want 0", got.Cents)
	}

	list := []Expense{
		exp("1", "Coffee", "Food", "2024-01-01", 450),
		exp("2", "Bus", "Travel", "2024-01-02", 200),
		exp("3", "Lunch", "Food", "2024-01-03", 1000),
	}
	if got := Total(list); got.Cents != 1650 {
		t.Fatalf("total = %d, want 1650", got.Cents)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	list := []Expense{
		exp("1", "Coffee", "Food", "2024-01-01", 450),
		exp("2", "Bus", "Travel", "2024-01-02", 200),
		exp("3", "Lunch", "Food", "2024-01-03", 1000),
	}

	got := CategoryBreakdown(list)
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(got))
	}
	// Alphabetical: Food before Travel
	if got[0].Name != "Food" || got[0].Amount.Cents != 1450 {
		t.Fatalf("group 0 = %+v", got[0])
	}
	if got[1].Name != "Travel" || got[1].Amount.Cents != 200 {
		t.Fatalf("group 1 = %+v", got[1])
	}

	// Sum over groups equals the list total
	var sum int64
	for _, g := range got {
		sum += g.Amount.Cents
	}
	if sum != Total(list).Cents {
		t.Fatalf("breakdown sum %d != total %d", sum, Total(list).Cents)
	}

	if got := CategoryBreakdown(nil); len(got) != 0 {
		t.Fatalf("empty list expected no groups, got %d", len(got))
	}
}

func TestPieSlices(t *testing.T) {
	list := []Expense{
		exp("1", "Coffee", "Food", "2024-01-01", 450),
		exp("2", "Bus", "Travel", "2024-01-02", 200),
	}
	got := PieSlices(list)
	if len(got) != 2 {
		t.Fatalf("expected one slice per expense, got %d", len(got))
	}
	if got[0].Label != "Coffee" || got[0].Value.Cents != 450 {
		t.Fatalf("slice 0 = %+v", got[0])
	}
}

func TestSortByDateDesc(t *testing.T) {
	list := []Expense{
		exp("a", "old", "Food", "2023-06-01", 100),
		exp("b", "new", "Food", "2024-03-01", 100),
		exp("c", "mid", "Food", "2024-01-15", 100),
	}
	SortByDateDesc(list)
	for i := 0; i < len(list)-1; i++ {
		if list[i].Date.Before(list[i+1].Date.Time) {
			t.Fatalf("list not descending at %d: %v < %v", i, list[i].Date, list[i+1].Date)
		}
	}
	if list[0].ID != "b" || list[2].ID != "a" {
		t.Fatalf("unexpected order: %s %s %s", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestSortByDateDescTieBreak(t *testing.T) {
	now := time.Now()
	a := exp("a", "first", "Food", "2024-01-01", 100)
	a.CreatedAt = now
	b := exp("b", "second", "Food", "2024-01-01", 100)
	b.CreatedAt = now.Add(time.Minute)

	list := []Expense{a, b}
	SortByDateDesc(list)
	if list[0].ID != "b" {
		t.Fatalf("expected newest CreatedAt first, got %s", list[0].ID)
	}

	// Same date and CreatedAt: order by ID, deterministically
	b.CreatedAt = now
	list = []Expense{b, a}
	SortByDateDesc(list)
	if list[0].ID != "a" {
		t.Fatalf("expected id tiebreak, got %s", list[0].ID)
	}
}

func TestReconcile(t *testing.T) {
	prev := []Expense{exp("old", "gone", "Food", "2023-01-01", 100)}
	snapshot := []Expense{
		exp("1", "Coffee", "Food", "2024-01-01", 450),
		exp("2", "Bus", "Travel", "2024-02-01", 200),
	}

	got := Reconcile(prev, snapshot)
	if len(got) != 2 {
		t.Fatalf("expected snapshot replacement, got %d entries", len(got))
	}
	if got[0].ID != "2" {
		t.Fatalf("expected newest first, got %s", got[0].ID)
	}
	for _, e := range got {
		if e.ID == "old" {
			t.Fatalf("previous list leaked into reconciled view")
		}
	}

	// Input snapshot must not be mutated
	if snapshot[0].ID != "1" {
		t.Fatalf("snapshot mutated")
	}

	if got := Reconcile(prev, nil); len(got) != 0 {
		t.Fatalf("empty snapshot expected empty list, got %d", len(got))
	}
}
