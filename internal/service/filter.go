package service

import (
	"strings"
	"time"

	"github.com/atinyakov/kakeibo/internal/models"
)

// Filter type names accepted from the list view.
const (
	FilterAll     = "all"
	FilterIncome  = string(models.Income)
	FilterExpense = string(models.Expense)
)

const dateLayout = "2006-01-02"

// ParseFilter builds an item filter from raw query values. Parsing is
// tolerant: an unknown type means all types and an unparseable date means no
// bound. Both bounds are inclusive. A bare date covers the whole UTC day; an
// RFC 3339 instant is used as is.
func ParseFilter(typ, from, to string) models.ItemFilter {
	var f models.ItemFilter

	switch t := models.ItemType(strings.ToLower(strings.TrimSpace(typ))); t {
	case models.Income, models.Expense:
		f.Type = t
	}

	if t, _, ok := parseBound(from); ok {
		f.From = t
	}
	if t, dateOnly, ok := parseBound(to); ok {
		if dateOnly {
			f.To = t.AddDate(0, 0, 1)
		} else {
			f.To = t.Add(time.Nanosecond)
		}
	}

	return f
}

// FilterTypeName returns the list-view name of the filter's type.
func FilterTypeName(f models.ItemFilter) string {
	if f.Type == "" {
		return FilterAll
	}
	return string(f.Type)
}

func parseBound(s string) (t time.Time, dateOnly bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.UTC); err == nil {
		return t, true, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, true
	}
	return time.Time{}, false, false
}
