package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/kakeibo/internal/db"
	"github.com/atinyakov/kakeibo/internal/models"
	"github.com/atinyakov/kakeibo/internal/repository"
)

type mockItemRepo struct {
	CreateItemFunc   func(ctx context.Context, it *models.Item) (int64, error)
	FindItemByIDFunc func(ctx context.Context, id int64) (*models.Item, error)
	UpdateItemFunc   func(ctx context.Context, it *models.Item) error
	DeleteItemFunc   func(ctx context.Context, userID string, id int64) error
	ListItemsFunc    func(ctx context.Context, userID string, f models.ItemFilter) ([]models.Item, error)
}

func (m *mockItemRepo) CreateItem(ctx context.Context, it *models.Item) (int64, error) {
	return m.CreateItemFunc(ctx, it)
}
func (m *mockItemRepo) FindItemByID(ctx context.Context, id int64) (*models.Item, error) {
	return m.FindItemByIDFunc(ctx, id)
}
func (m *mockItemRepo) UpdateItem(ctx context.Context, it *models.Item) error {
	return m.UpdateItemFunc(ctx, it)
}
func (m *mockItemRepo) DeleteItem(ctx context.Context, userID string, id int64) error {
	return m.DeleteItemFunc(ctx, userID, id)
}
func (m *mockItemRepo) ListItems(ctx context.Context, userID string, f models.ItemFilter) ([]models.Item, error) {
	return m.ListItemsFunc(ctx, userID, f)
}

func TestLedgerService_CreateItem(t *testing.T) {
	var stored *models.Item
	repo := &mockItemRepo{
		CreateItemFunc: func(ctx context.Context, it *models.Item) (int64, error) {
			stored = it
			return 7, nil
		},
	}
	svc := NewLedgerService(repo)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("JST", 9*3600))
	svc.now = func() time.Time { return at }

	id, err := svc.CreateItem(context.Background(), "u-1", ItemInput{
		Amount: "1,200", Type: "Expense", Event: " lunch ", Memo: "ramen",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	require.NotNil(t, stored)
	assert.Equal(t, "u-1", stored.UserID)
	assert.Equal(t, int64(1200), stored.Amount)
	assert.Equal(t, models.Expense, stored.Type)
	assert.Equal(t, "lunch", stored.Event)
	assert.Equal(t, time.UTC, stored.CreatedAt.Location())
	assert.True(t, stored.CreatedAt.Equal(at))
}

func TestLedgerService_CreateItemValidation(t *testing.T) {
	repo := &mockItemRepo{
		CreateItemFunc: func(context.Context, *models.Item) (int64, error) {
			t.Fatal("CreateItem must not be called")
			return 0, nil
		},
	}
	svc := NewLedgerService(repo)

	cases := map[string]ItemInput{
		"missing amount":  {Type: "income"},
		"negative amount": {Amount: "-5", Type: "income"},
		"fraction":        {Amount: "1.5", Type: "income"},
		"not a number":    {Amount: "abc", Type: "income"},
		"exponent":        {Amount: "1e100000000", Type: "income"},
		"loose commas":    {Amount: "1,2,3", Type: "income"},
		"unknown type":    {Amount: "5", Type: "transfer"},
		"missing type":    {Amount: "5"},
		"long event":      {Amount: "5", Type: "income", Event: strings.Repeat("あ", maxTextLen+1)},
		"long memo":       {Amount: "5", Type: "income", Memo: strings.Repeat("m", maxTextLen+1)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateItem(context.Background(), "u-1", in)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, CodeInvalid, ErrorCode(err))
		})
	}
}

func TestLedgerService_GetItemOwnership(t *testing.T) {
	repo := &mockItemRepo{
		FindItemByIDFunc: func(ctx context.Context, id int64) (*models.Item, error) {
			switch id {
			case 1:
				return &models.Item{ID: 1, UserID: "owner", Amount: 100, Type: models.Income}, nil
			case 2:
				return nil, errors.New("connection reset")
			default:
				return nil, repository.ErrNotFound
			}
		},
	}
	svc := NewLedgerService(repo)
	ctx := context.Background()

	it, err := svc.GetItem(ctx, "owner", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), it.Amount)

	_, err = svc.GetItem(ctx, "intruder", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetItem(ctx, "owner", 99)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetItem(ctx, "owner", 2)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestLedgerService_UpdateAndDeleteErrors(t *testing.T) {
	boom := errors.New("timeout")
	repo := &mockItemRepo{
		UpdateItemFunc: func(ctx context.Context, it *models.Item) error {
			if it.ID == 1 {
				return repository.ErrNotFound
			}
			return boom
		},
		DeleteItemFunc: func(ctx context.Context, userID string, id int64) error {
			if id == 1 {
				return repository.ErrNotFound
			}
			return boom
		},
	}
	svc := NewLedgerService(repo)
	ctx := context.Background()
	in := ItemInput{Amount: "10", Type: "income"}

	assert.ErrorIs(t, svc.UpdateItem(ctx, "u-1", 1, in), ErrNotFound)
	assert.ErrorIs(t, svc.UpdateItem(ctx, "u-1", 2, in), ErrServiceUnavailable)
	assert.ErrorIs(t, svc.UpdateItem(ctx, "u-1", 1, ItemInput{Amount: "x", Type: "income"}), ErrValidation)

	assert.ErrorIs(t, svc.DeleteItem(ctx, "u-1", 1), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteItem(ctx, "u-1", 2), ErrServiceUnavailable)
}

func TestLedgerService_OrderIsForced(t *testing.T) {
	var orders []models.Order
	repo := &mockItemRepo{
		ListItemsFunc: func(ctx context.Context, userID string, f models.ItemFilter) ([]models.Item, error) {
			orders = append(orders, f.Order)
			return []models.Item{}, nil
		},
	}
	svc := NewLedgerService(repo)
	ctx := context.Background()

	_, err := svc.ListForUser(ctx, "u-1", models.ItemFilter{Order: models.OldestFirst})
	require.NoError(t, err)
	_, err = svc.Stats(ctx, "u-1", models.ItemFilter{})
	require.NoError(t, err)

	assert.Equal(t, []models.Order{models.NewestFirst, models.OldestFirst}, orders)
}

// newSQLiteLedger wires the service to a fresh in-memory database holding
// two users, alice and bob.
func newSQLiteLedger(t *testing.T) (*LedgerService, *clock) {
	t.Helper()
	conn, err := db.InitSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	users := repository.NewAuthRepository(conn, db.SQLite)
	for _, id := range []string{"alice", "bob"} {
		require.NoError(t, users.CreateUser(context.Background(), &models.User{
			ID: id, Account: id + "@example.com", PasswordHash: []byte("x"), CreatedAt: time.Now().UTC(),
		}))
	}

	c := newClock()
	svc := NewLedgerService(repository.NewItemRepository(conn, db.SQLite))
	svc.now = c.Now
	return svc, c
}

func TestLedgerService_Scenario(t *testing.T) {
	svc, c := newSQLiteLedger(t)
	ctx := context.Background()

	c.t = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	_, err := svc.CreateItem(ctx, "alice", ItemInput{Amount: "1000", Type: "income", Event: "salary"})
	require.NoError(t, err)
	c.Advance(time.Hour)
	_, err = svc.CreateItem(ctx, "alice", ItemInput{Amount: "300", Type: "expense", Event: "groceries"})
	require.NoError(t, err)
	c.t = time.Date(2024, 1, 2, 19, 30, 0, 0, time.UTC)
	lastID, err := svc.CreateItem(ctx, "alice", ItemInput{Amount: "200", Type: "expense", Event: "dinner"})
	require.NoError(t, err)

	ov, err := svc.Overview(ctx, "alice", models.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, ov.Items, 3)
	assert.Equal(t, lastID, ov.Items[0].ID, "newest first")
	assert.Equal(t, Totals{Income: 1000, Expense: 500, Balance: 500}, ov.Totals)

	stats, err := svc.Stats(ctx, "alice", models.ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, DailySeries{
		Labels:  []string{"2024-01-01", "2024-01-02"},
		Income:  []int64{1000, 0},
		Expense: []int64{300, 200},
	}, stats)

	expenses, err := svc.ListForUser(ctx, "alice", ParseFilter("expense", "", ""))
	require.NoError(t, err)
	assert.Len(t, expenses, 2)

	firstDay, err := svc.ListForUser(ctx, "alice", ParseFilter("all", "2024-01-01", "2024-01-01"))
	require.NoError(t, err)
	assert.Len(t, firstDay, 2)

	// Another user sees nothing and cannot touch alice's items.
	bobs, err := svc.Overview(ctx, "bob", models.ItemFilter{})
	require.NoError(t, err)
	assert.Empty(t, bobs.Items)
	assert.Equal(t, Totals{}, bobs.Totals)

	_, err = svc.GetItem(ctx, "bob", lastID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteItem(ctx, "bob", lastID), ErrNotFound)
	assert.ErrorIs(t, svc.UpdateItem(ctx, "bob", lastID, ItemInput{Amount: "1", Type: "income"}), ErrNotFound)

	still, err := svc.GetItem(ctx, "alice", lastID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), still.Amount)
}

func TestLedgerService_UpdateThenDelete(t *testing.T) {
	svc, c := newSQLiteLedger(t)
	ctx := context.Background()

	id, err := svc.CreateItem(ctx, "alice", ItemInput{Amount: "500", Type: "expense", Event: "taxi"})
	require.NoError(t, err)
	created, err := svc.GetItem(ctx, "alice", id)
	require.NoError(t, err)

	c.Advance(24 * time.Hour)
	require.NoError(t, svc.UpdateItem(ctx, "alice", id, ItemInput{Amount: "450", Type: "expense", Event: "taxi", Memo: "discount"}))

	updated, err := svc.GetItem(ctx, "alice", id)
	require.NoError(t, err)
	assert.Equal(t, int64(450), updated.Amount)
	assert.Equal(t, "discount", updated.Memo)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt), "edit keeps the creation time")

	require.NoError(t, svc.DeleteItem(ctx, "alice", id))
	_, err = svc.GetItem(ctx, "alice", id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteItem(ctx, "alice", id), ErrNotFound)
}
