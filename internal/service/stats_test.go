package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/atinyakov/kakeibo/internal/models"
)

func item(typ models.ItemType, amount int64, at string) models.Item {
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		panic(err)
	}
	return models.Item{Type: typ, Amount: amount, CreatedAt: t}
}

func TestBucketByDay(t *testing.T) {
	items := []models.Item{
		item(models.Expense, 200, "2024-01-02T19:30:00Z"),
		item(models.Income, 1000, "2024-01-01T08:00:00Z"),
		item(models.Expense, 300, "2024-01-01T09:00:00Z"),
	}

	want := DailySeries{
		Labels:  []string{"2024-01-01", "2024-01-02"},
		Income:  []int64{1000, 0},
		Expense: []int64{300, 200},
	}
	assert.Equal(t, want, BucketByDay(items))

	reversed := []models.Item{items[2], items[1], items[0]}
	assert.Equal(t, want, BucketByDay(reversed), "result must not depend on input order")
}

func TestBucketByDay_UTCDayBoundary(t *testing.T) {
	// 08:30 on Jan 2 in Tokyo is 23:30 on Jan 1 in UTC.
	items := []models.Item{
		item(models.Income, 5, "2024-01-02T08:30:00+09:00"),
		item(models.Income, 7, "2024-01-01T23:59:59Z"),
		item(models.Expense, 1, "2024-01-02T00:00:00Z"),
	}
	got := BucketByDay(items)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, got.Labels)
	assert.Equal(t, []int64{12, 0}, got.Income)
	assert.Equal(t, []int64{0, 1}, got.Expense)
}

func TestBucketByDay_Empty(t *testing.T) {
	got := BucketByDay(nil)
	assert.Empty(t, got.Labels)
	assert.Len(t, got.Income, 0)
	assert.Len(t, got.Expense, 0)
	assert.NotNil(t, got.Labels, "empty series encodes as [] rather than null")
}
