// Package models defines the core data structures for users, sessions and ledger items.
package models

import "time"

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Account is the normalized login identifier (an email address).
	Account string `json:"account"`
	// PasswordHash is the hashed password of the user.
	PasswordHash []byte `json:"-"`
	// CreatedAt is the registration time.
	CreatedAt time.Time `json:"created_at"`
}

// Session binds an opaque token to a signed-in user.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ItemType is the category of a ledger item.
type ItemType string

const (
	// Income marks money received.
	Income ItemType = "income"
	// Expense marks money spent.
	Expense ItemType = "expense"
)

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	return t == Income || t == Expense
}

// Item is a single dated income or expense entry.
type Item struct {
	// ID is assigned by the store on creation.
	ID int64 `json:"id"`
	// UserID identifies the owner of the item.
	UserID string `json:"user_id"`
	// Amount is expressed in minor currency units.
	Amount int64 `json:"amount"`
	// Type is either income or expense.
	Type ItemType `json:"type"`
	// Event is a short free-text label.
	Event string `json:"event"`
	// Memo is a free-text note.
	Memo string `json:"memo"`
	// CreatedAt is stored and compared in UTC.
	CreatedAt time.Time `json:"created_at"`
}

// Order selects the creation-time ordering of item listings.
type Order int

const (
	// NewestFirst orders items by creation time descending.
	NewestFirst Order = iota
	// OldestFirst orders items by creation time ascending.
	OldestFirst
)

// ItemFilter holds the predicates applied to an owner's items.
// A zero From or To means the bound is absent. To is exclusive;
// callers convert inclusive calendar days before building the filter.
type ItemFilter struct {
	Type  ItemType
	From  time.Time
	To    time.Time
	Order Order
}
