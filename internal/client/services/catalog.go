package services

import (
	"context"

	"github.com/dmitrijs2005/storefront/internal/client/api"
	"github.com/dmitrijs2005/storefront/internal/client/models"
)

// CatalogService resolves product ids against the API before they reach
// the cart or the wishlist, so stored snapshots carry current price and
// stock.
type CatalogService interface {
	Products(ctx context.Context, f api.ProductFilter) ([]models.Product, error)
	AddToCart(ctx context.Context, id int64, quantity int) (models.CartEntry, error)
	ToggleWishlist(ctx context.Context, id int64) (bool, error)
}

type Catalog interface {
	ListProducts(ctx context.Context, f api.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

type CartAdder interface {
	Add(ctx context.Context, p models.Product, quantity int) error
	Get(id int64) (models.CartEntry, bool)
}

type WishlistToggler interface {
	Toggle(ctx context.Context, p models.Product) (bool, error)
}

type catalogService struct {
	catalog  Catalog
	cart     CartAdder
	wishlist WishlistToggler
}

func NewCatalogService(catalog Catalog, cart CartAdder, wishlist WishlistToggler) CatalogService {
	return &catalogService{catalog: catalog, cart: cart, wishlist: wishlist}
}

func (s *catalogService) Products(ctx context.Context, f api.ProductFilter) ([]models.Product, error) {
	return s.catalog.ListProducts(ctx, f)
}

// AddToCart returns the resulting clamped entry. Callers compare its
// quantity with what they asked for to warn about the stock ceiling.
func (s *catalogService) AddToCart(ctx context.Context, id int64, quantity int) (models.CartEntry, error) {
	p, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return models.CartEntry{}, err
	}
	if err := s.cart.Add(ctx, *p, quantity); err != nil {
		return models.CartEntry{}, err
	}
	e, _ := s.cart.Get(id)
	return e, nil
}

func (s *catalogService) ToggleWishlist(ctx context.Context, id int64) (bool, error) {
	p, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return false, err
	}
	return s.wishlist.Toggle(ctx, *p)
}
