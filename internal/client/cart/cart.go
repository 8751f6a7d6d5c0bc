// Package cart is the per-origin shopping cart.
//
// Stored quantities are what the user asked for; Entries, Count and Subtotal
// report them clamped to [1, stock] because stock can change between adding
// an item and reading the cart.
package cart

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/storefront/internal/client/localstate"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/notify"
	"github.com/dmitrijs2005/storefront/internal/client/storage"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/shopspring/decimal"
)

type Store struct {
	list *localstate.List[models.CartEntry]
}

// New loads the stored cart. Only a storage failure is an error; a corrupt
// value loads as an empty cart.
func New(ctx context.Context, st storage.Storage, n notify.Notifier, log logging.Logger) (*Store, error) {
	s := &Store{list: localstate.NewList[models.CartEntry](st, common.KeyCart, common.TopicCart, n, log.With("component", "cart"))}
	if err := s.list.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func indexOf(entries []models.CartEntry, id int64) int {
	return slices.IndexFunc(entries, func(e models.CartEntry) bool { return e.Product.ID == id })
}

// Add puts quantity units of p in the cart. An existing entry for p.ID is
// incremented and its product snapshot refreshed; otherwise a new entry is
// appended. A quantity below 1 adds one unit.
func (s *Store) Add(ctx context.Context, p models.Product, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	return s.list.Update(ctx, func(entries []models.CartEntry) []models.CartEntry {
		if i := indexOf(entries, p.ID); i >= 0 {
			entries[i].Product = p
			entries[i].Quantity += quantity
			return entries
		}
		return append(entries, models.CartEntry{Product: p, Quantity: quantity})
	})
}

// Remove deletes the entry for id. Removing an absent id is not an error.
func (s *Store) Remove(ctx context.Context, id int64) error {
	return s.list.Update(ctx, func(entries []models.CartEntry) []models.CartEntry {
		return slices.DeleteFunc(entries, func(e models.CartEntry) bool { return e.Product.ID == id })
	})
}

// SetQuantity overwrites the quantity for id, clamped to the product stock.
// A quantity below 1 removes the entry.
func (s *Store) SetQuantity(ctx context.Context, id int64, quantity int) error {
	if quantity < 1 {
		return s.Remove(ctx, id)
	}
	return s.list.Update(ctx, func(entries []models.CartEntry) []models.CartEntry {
		if i := indexOf(entries, id); i >= 0 {
			entries[i].Quantity = models.ClampQuantity(quantity, entries[i].Product.Stock)
		}
		return entries
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.list.Update(ctx, func([]models.CartEntry) []models.CartEntry { return nil })
}

// Entries returns the cart in insertion order with clamped quantities.
func (s *Store) Entries() []models.CartEntry {
	entries := s.list.Snapshot()
	for i := range entries {
		entries[i] = entries[i].Clamped()
	}
	return entries
}

// Get returns the clamped entry for id.
func (s *Store) Get(id int64) (models.CartEntry, bool) {
	entries := s.Entries()
	if i := indexOf(entries, id); i >= 0 {
		return entries[i], true
	}
	return models.CartEntry{}, false
}

// Count is the total number of units, not the number of entries.
func (s *Store) Count() int {
	n := 0
	for _, e := range s.Entries() {
		n += e.Quantity
	}
	return n
}

func (s *Store) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.Entries() {
		total = total.Add(e.LineTotal())
	}
	return total
}

func (s *Store) IsEmpty() bool {
	return len(s.list.Snapshot()) == 0
}

// Refresh re-reads the cart from storage.
func (s *Store) Refresh(ctx context.Context) error {
	return s.list.Refresh(ctx)
}

// Watch keeps the cart in sync with changes written by other instances
// until ctx is done. onChange may be nil.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	return s.list.Watch(ctx, onChange)
}
