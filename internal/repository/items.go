package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/kakeibo/internal/db"
	"github.com/atinyakov/kakeibo/internal/models"
)

const itemColumns = `id, user_id, amount, type, event, memo, created_at`

// ItemRepository implements ledger item persistence.
type ItemRepository struct {
	// DB is the database handle for executing queries.
	DB      *sql.DB
	dialect db.Dialect
}

// NewItemRepository creates an ItemRepository over conn.
func NewItemRepository(conn *sql.DB, dialect db.Dialect) *ItemRepository {
	return &ItemRepository{DB: conn, dialect: dialect}
}

// CreateItem inserts it and returns the id assigned by the store.
// The amount is stored as given; validation happens in the service layer.
func (r *ItemRepository) CreateItem(ctx context.Context, it *models.Item) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, r.dialect.Rebind(`
		INSERT INTO items (user_id, amount, type, event, memo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`), it.UserID, it.Amount, string(it.Type), it.Event, it.Memo, it.CreatedAt.UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return id, nil
}

// FindItemByID returns the item with the given id without checking ownership.
func (r *ItemRepository) FindItemByID(ctx context.Context, id int64) (*models.Item, error) {
	row := r.DB.QueryRowContext(ctx, r.dialect.Rebind(
		`SELECT `+itemColumns+` FROM items WHERE id = $1`), id)

	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// UpdateItem overwrites amount, type, event and memo of the item identified by
// it.ID and owned by it.UserID. It returns ErrNotFound when no such row exists.
func (r *ItemRepository) UpdateItem(ctx context.Context, it *models.Item) error {
	res, err := r.DB.ExecContext(ctx, r.dialect.Rebind(`
		UPDATE items SET amount = $1, type = $2, event = $3, memo = $4
		WHERE id = $5 AND user_id = $6
	`), it.Amount, string(it.Type), it.Event, it.Memo, it.ID, it.UserID)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return expectOneRow(res, "update item")
}

// DeleteItem removes the item owned by userID. Deleting a missing item
// returns ErrNotFound and changes nothing.
func (r *ItemRepository) DeleteItem(ctx context.Context, userID string, id int64) error {
	res, err := r.DB.ExecContext(ctx, r.dialect.Rebind(
		`DELETE FROM items WHERE id = $1 AND user_id = $2`), id, userID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return expectOneRow(res, "delete item")
}

// ListItems returns the items of userID matching f in a single query.
func (r *ItemRepository) ListItems(ctx context.Context, userID string, f models.ItemFilter) ([]models.Item, error) {
	var sb strings.Builder
	args := []any{userID}

	sb.WriteString(`SELECT ` + itemColumns + ` FROM items WHERE user_id = $1`)
	if f.Type != "" {
		args = append(args, string(f.Type))
		fmt.Fprintf(&sb, ` AND type = $%d`, len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From.UTC())
		fmt.Fprintf(&sb, ` AND created_at >= $%d`, len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To.UTC())
		fmt.Fprintf(&sb, ` AND created_at < $%d`, len(args))
	}
	if f.Order == models.OldestFirst {
		sb.WriteString(` ORDER BY created_at ASC, id ASC`)
	} else {
		sb.WriteString(` ORDER BY created_at DESC, id DESC`)
	}

	rows, err := r.DB.QueryContext(ctx, r.dialect.Rebind(sb.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]models.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*models.Item, error) {
	var (
		it  models.Item
		typ string
	)
	if err := s.Scan(&it.ID, &it.UserID, &it.Amount, &typ, &it.Event, &it.Memo, &it.CreatedAt); err != nil {
		return nil, err
	}
	it.Type = models.ItemType(typ)
	it.CreatedAt = it.CreatedAt.UTC()
	return &it, nil
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
