package http

import (
	"fmt"
	"html/template"
	"strings"

	"kharcha/internal/core"
)

// Chart palette, cycled when there are more slices than colors.
var piePalette = []string{
	"#6366f1", "#f59e0b", "#10b981", "#ef4444", "#8b5cf6",
	"#06b6d4", "#f97316", "#ec4899", "#84cc16", "#64748b",
}

type expenseRow struct {
	ID       string
	Title    string
	Category string
	Date     string
	Comments string
	Amount   string
}

type pieSegment struct {
	Label  string
	Amount string
	Color  string
}

type pieView struct {
	Gradient template.CSS
	Segments []pieSegment
	Empty    bool
}

type categoryTotal struct {
	Name   string
	Amount string
}

type expensesView struct {
	Rows       []expenseRow
	Total      string
	Pie        pieView
	Categories []categoryTotal
	Count      int
}

type dashboardView struct {
	Theme      string
	Name       string
	Categories []string
	Expenses   expensesView
}

// buildExpensesView converts a sorted collection into the render model for
// the table and the chart.
func buildExpensesView(list []core.Expense) expensesView {
	view := expensesView{
		Total: formatRupees(core.Total(list).Cents),
		Count: len(list),
		Pie:   buildPieView(list),
	}
	for _, e := range list {
		view.Rows = append(view.Rows, expenseRow{
			ID:       e.ID,
			Title:    e.Title,
			Category: e.Category,
			Date:     e.Date.String(),
			Comments: e.Comments,
			Amount:   formatRupees(e.Amount.Cents),
		})
	}
	for _, c := range core.CategoryBreakdown(list) {
		view.Categories = append(view.Categories, categoryTotal{
			Name:   c.Name,
			Amount: formatRupees(c.Amount.Cents),
		})
	}
	return view
}

// buildPieView lays out one slice per expense as a CSS conic gradient.
func buildPieView(list []core.Expense) pieView {
	slices := core.PieSlices(list)
	total := core.Total(list).Cents
	if len(slices) == 0 || total <= 0 {
		return pieView{Empty: true}
	}

	var stops []string
	var segments []pieSegment
	var acc float64
	for i, slice := range slices {
		color := piePalette[i%len(piePalette)]
		share := float64(slice.Value.Cents) / float64(total) * 100
		from := acc
		acc += share
		stops = append(stops, fmt.Sprintf("%s %.2f%% %.2f%%", color, from, acc))
		segments = append(segments, pieSegment{
			Label:  slice.Label,
			Amount: formatRupees(slice.Value.Cents),
			Color:  color,
		})
	}

	return pieView{
		Gradient: template.CSS("conic-gradient(" + strings.Join(stops, ", ") + ")"),
		Segments: segments,
	}
}
