// Package wishlist is the per-origin set of saved products, kept in
// insertion order.
package wishlist

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/storefront/internal/client/localstate"
	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/client/notify"
	"github.com/dmitrijs2005/storefront/internal/client/storage"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

type Store struct {
	list *localstate.List[models.Product]
}

func New(ctx context.Context, st storage.Storage, n notify.Notifier, log logging.Logger) (*Store, error) {
	s := &Store{list: localstate.NewList[models.Product](st, common.KeyWishlist, common.TopicWishlist, n, log.With("component", "wishlist"))}
	if err := s.list.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func byID(id int64) func(models.Product) bool {
	return func(p models.Product) bool { return p.ID == id }
}

// Toggle adds p if it is absent and removes it otherwise. It reports whether
// p is in the wishlist afterwards.
func (s *Store) Toggle(ctx context.Context, p models.Product) (bool, error) {
	var added bool
	err := s.list.Update(ctx, func(items []models.Product) []models.Product {
		if slices.ContainsFunc(items, byID(p.ID)) {
			added = false
			return slices.DeleteFunc(items, byID(p.ID))
		}
		added = true
		return append(items, p)
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// Add saves p unless a product with the same id is already saved.
func (s *Store) Add(ctx context.Context, p models.Product) error {
	return s.list.Update(ctx, func(items []models.Product) []models.Product {
		if slices.ContainsFunc(items, byID(p.ID)) {
			return items
		}
		return append(items, p)
	})
}

func (s *Store) Remove(ctx context.Context, id int64) error {
	return s.list.Update(ctx, func(items []models.Product) []models.Product {
		return slices.DeleteFunc(items, byID(id))
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.list.Update(ctx, func([]models.Product) []models.Product { return nil })
}

func (s *Store) Contains(id int64) bool {
	return slices.ContainsFunc(s.list.Snapshot(), byID(id))
}

// List returns the saved products in the order they were added.
func (s *Store) List() []models.Product {
	return s.list.Snapshot()
}

func (s *Store) Len() int {
	return len(s.list.Snapshot())
}

func (s *Store) Refresh(ctx context.Context) error {
	return s.list.Refresh(ctx)
}

// Watch keeps the wishlist in sync with other instances until ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	return s.list.Watch(ctx, onChange)
}
