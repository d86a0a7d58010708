package service

import (
	"sort"

	"github.com/atinyakov/kakeibo/internal/models"
)

// DailySeries holds per-day sums as parallel slices aligned to Labels.
type DailySeries struct {
	Labels  []string `json:"labels"`
	Income  []int64  `json:"incomeData"`
	Expense []int64  `json:"expenseData"`
}

type dayTotals struct {
	income  int64
	expense int64
}

// BucketByDay groups items by the UTC calendar day of their creation time.
// Days without items are absent; a present day reports 0 for a category that
// had no activity, so all three slices always have the same length.
// Labels are sorted ascending, independent of input order.
func BucketByDay(items []models.Item) DailySeries {
	days := make(map[string]*dayTotals)
	for _, it := range items {
		label := it.CreatedAt.UTC().Format(dateLayout)
		d, ok := days[label]
		if !ok {
			d = &dayTotals{}
			days[label] = d
		}
		switch it.Type {
		case models.Income:
			d.income += it.Amount
		case models.Expense:
			d.expense += it.Amount
		}
	}

	series := DailySeries{
		Labels:  make([]string, 0, len(days)),
		Income:  make([]int64, 0, len(days)),
		Expense: make([]int64, 0, len(days)),
	}
	for label := range days {
		series.Labels = append(series.Labels, label)
	}
	sort.Strings(series.Labels)

	for _, label := range series.Labels {
		series.Income = append(series.Income, days[label].income)
		series.Expense = append(series.Expense, days[label].expense)
	}
	return series
}
