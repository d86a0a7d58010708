package service

import "github.com/atinyakov/kakeibo/internal/models"

// Totals summarizes a set of items.
type Totals struct {
	Income  int64 `json:"incomeTotal"`
	Expense int64 `json:"expenseTotal"`
	Balance int64 `json:"balance"`
}

// ComputeTotals sums income and expense amounts; Balance is Income minus Expense.
func ComputeTotals(items []models.Item) Totals {
	var t Totals
	for _, it := range items {
		switch it.Type {
		case models.Income:
			t.Income += it.Amount
		case models.Expense:
			t.Expense += it.Amount
		}
	}
	t.Balance = t.Income - t.Expense
	return t
}
