package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atinyakov/kakeibo/internal/models"
	"github.com/atinyakov/kakeibo/internal/repository"
)

// maxTextLen bounds the event and memo fields, counted in runes.
const maxTextLen = 200

// ItemRepository defines the persistence operations needed by the LedgerService.
type ItemRepository interface {
	// CreateItem stores a new item and returns its id.
	CreateItem(ctx context.Context, it *models.Item) (int64, error)
	// FindItemByID fetches an item without checking ownership.
	FindItemByID(ctx context.Context, id int64) (*models.Item, error)
	// UpdateItem overwrites amount, type, event and memo of an item owned by it.UserID.
	UpdateItem(ctx context.Context, it *models.Item) error
	// DeleteItem removes an item owned by userID.
	DeleteItem(ctx context.Context, userID string, id int64) error
	// ListItems returns the user's items matching the filter.
	ListItems(ctx context.Context, userID string, f models.ItemFilter) ([]models.Item, error)
}

// ItemInput carries the raw form fields of a create or edit submission.
type ItemInput struct {
	Amount string
	Type   string
	Event  string
	Memo   string
}

// Overview is the list view: filtered items with their totals.
type Overview struct {
	Items []models.Item `json:"items"`
	Totals
}

// LedgerService manages ledger items on behalf of their owners.
// An item owned by another user is reported as ErrNotFound.
type LedgerService struct {
	repo ItemRepository
	now  func() time.Time
}

// NewLedgerService constructs a LedgerService with the provided ItemRepository.
func NewLedgerService(repo ItemRepository) *LedgerService {
	return &LedgerService{repo: repo, now: time.Now}
}

// CreateItem validates in and stores a new item for ownerID, stamped with the current time.
func (s *LedgerService) CreateItem(ctx context.Context, ownerID string, in ItemInput) (int64, error) {
	it, err := buildItem(in)
	if err != nil {
		return 0, err
	}
	it.UserID = ownerID
	it.CreatedAt = s.now().UTC()

	id, err := s.repo.CreateItem(ctx, it)
	if err != nil {
		return 0, unavailable("create item", err)
	}
	return id, nil
}

// GetItem returns the item if it exists and belongs to ownerID.
func (s *LedgerService) GetItem(ctx context.Context, ownerID string, id int64) (*models.Item, error) {
	it, err := s.repo.FindItemByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get item", err)
	}
	if it.UserID != ownerID {
		return nil, ErrNotFound
	}
	return it, nil
}

// UpdateItem overwrites the editable fields of an item owned by ownerID.
func (s *LedgerService) UpdateItem(ctx context.Context, ownerID string, id int64, in ItemInput) error {
	it, err := buildItem(in)
	if err != nil {
		return err
	}
	it.ID = id
	it.UserID = ownerID

	err = s.repo.UpdateItem(ctx, it)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return unavailable("update item", err)
	}
	return nil
}

// DeleteItem removes an item owned by ownerID. A missing item is ErrNotFound.
func (s *LedgerService) DeleteItem(ctx context.Context, ownerID string, id int64) error {
	err := s.repo.DeleteItem(ctx, ownerID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return unavailable("delete item", err)
	}
	return nil
}

// ListForUser returns ownerID's items matching f, newest first.
func (s *LedgerService) ListForUser(ctx context.Context, ownerID string, f models.ItemFilter) ([]models.Item, error) {
	f.Order = models.NewestFirst
	items, err := s.repo.ListItems(ctx, ownerID, f)
	if err != nil {
		return nil, unavailable("list items", err)
	}
	return items, nil
}

// Overview lists ownerID's items matching f together with their totals.
func (s *LedgerService) Overview(ctx context.Context, ownerID string, f models.ItemFilter) (*Overview, error) {
	items, err := s.ListForUser(ctx, ownerID, f)
	if err != nil {
		return nil, err
	}
	return &Overview{Items: items, Totals: ComputeTotals(items)}, nil
}

// Stats buckets ownerID's items matching f by day.
func (s *LedgerService) Stats(ctx context.Context, ownerID string, f models.ItemFilter) (DailySeries, error) {
	f.Order = models.OldestFirst
	items, err := s.repo.ListItems(ctx, ownerID, f)
	if err != nil {
		return DailySeries{}, unavailable("list items", err)
	}
	return BucketByDay(items), nil
}

func buildItem(in ItemInput) (*models.Item, error) {
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return nil, err
	}

	typ := models.ItemType(strings.ToLower(strings.TrimSpace(in.Type)))
	if !typ.Valid() {
		return nil, invalid("type must be income or expense")
	}

	event := strings.TrimSpace(in.Event)
	memo := strings.TrimSpace(in.Memo)
	if utf8.RuneCountInString(event) > maxTextLen || utf8.RuneCountInString(memo) > maxTextLen {
		return nil, invalid("event and memo are limited to %d characters", maxTextLen)
	}

	return &models.Item{Amount: amount, Type: typ, Event: event, Memo: memo}, nil
}
