package http

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/kakeibo/internal/middleware"
	"github.com/atinyakov/kakeibo/internal/models"
	"github.com/atinyakov/kakeibo/internal/service"
)

// LedgerService defines the item operations required by the HTTP handlers.
// Every call is scoped to the owner; foreign items are service.ErrNotFound.
type LedgerService interface {
	CreateItem(ctx context.Context, ownerID string, in service.ItemInput) (int64, error)
	GetItem(ctx context.Context, ownerID string, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, ownerID string, id int64, in service.ItemInput) error
	DeleteItem(ctx context.Context, ownerID string, id int64) error
	Overview(ctx context.Context, ownerID string, f models.ItemFilter) (*service.Overview, error)
	Stats(ctx context.Context, ownerID string, f models.ItemFilter) (service.DailySeries, error)
}

// ItemHandler serves the item list, editor and statistics.
type ItemHandler struct {
	LedgerService LedgerService
	Logger        *zap.Logger
}

// ListView is the rendering context of the item list.
type ListView struct {
	*service.Overview
	Type string `json:"type"`
	From string `json:"from"`
	To   string `json:"to"`
}

// List renders the signed-in user's items matching the type/from/to query.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := service.ParseFilter(q.Get("type"), q.Get("from"), q.Get("to"))

	ov, err := h.LedgerService.Overview(r.Context(), middleware.GetUserIDFromContext(r.Context()), f)
	if err != nil {
		serverError(w, r, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ListView{
		Overview: ov,
		Type:     service.FilterTypeName(f),
		From:     q.Get("from"),
		To:       q.Get("to"),
	})
}

// Create adds an item for the signed-in user.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := itemInput(w, r)
	if err == nil {
		_, err = h.LedgerService.CreateItem(r.Context(), middleware.GetUserIDFromContext(r.Context()), in)
	}
	if err != nil {
		redirectWithError(w, r, h.Logger, "/items", err)
		return
	}
	http.Redirect(w, r, "/items", http.StatusFound)
}

// Detail renders one item selected by the id query parameter.
func (h *ItemHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.URL.Query().Get("id"))
	if !ok {
		notFound(w)
		return
	}
	h.renderItem(w, r, id)
}

// EditForm renders the item being edited.
func (h *ItemHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(r)
	if !ok {
		notFound(w)
		return
	}
	h.renderItem(w, r, id)
}

func (h *ItemHandler) renderItem(w http.ResponseWriter, r *http.Request, id int64) {
	it, err := h.LedgerService.GetItem(r.Context(), middleware.GetUserIDFromContext(r.Context()), id)
	if errors.Is(err, service.ErrNotFound) {
		notFound(w)
		return
	}
	if err != nil {
		serverError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// Update overwrites an item of the signed-in user.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(r)
	if !ok {
		notFound(w)
		return
	}

	in, err := itemInput(w, r)
	if err == nil {
		err = h.LedgerService.UpdateItem(r.Context(), middleware.GetUserIDFromContext(r.Context()), id, in)
	}
	if errors.Is(err, service.ErrNotFound) {
		notFound(w)
		return
	}
	if err != nil {
		redirectWithError(w, r, h.Logger, r.URL.Path, err)
		return
	}
	http.Redirect(w, r, "/items", http.StatusFound)
}

// Delete removes an item of the signed-in user.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := itemIDParam(r)
	if !ok {
		notFound(w)
		return
	}

	err := h.LedgerService.DeleteItem(r.Context(), middleware.GetUserIDFromContext(r.Context()), id)
	if errors.Is(err, service.ErrNotFound) {
		notFound(w)
		return
	}
	if err != nil {
		redirectWithError(w, r, h.Logger, "/items", err)
		return
	}
	http.Redirect(w, r, "/items", http.StatusFound)
}

// Stats renders per-day income and expense sums for the chart.
func (h *ItemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := service.ParseFilter(q.Get("type"), q.Get("from"), q.Get("to"))

	series, err := h.LedgerService.Stats(r.Context(), middleware.GetUserIDFromContext(r.Context()), f)
	if err != nil {
		serverError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func itemInput(w http.ResponseWriter, r *http.Request) (service.ItemInput, error) {
	form, err := formValues(w, r)
	if err != nil {
		return service.ItemInput{}, errors.Join(service.ErrValidation, err)
	}
	return service.ItemInput{
		Amount: form.Get("amount"),
		Type:   form.Get("type"),
		Event:  form.Get("event"),
		Memo:   form.Get("memo"),
	}, nil
}
