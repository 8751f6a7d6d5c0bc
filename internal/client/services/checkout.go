// Package services contains the storefront client's application services:
// checkout and the catalog actions that feed the cart and wishlist.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutService turns the cart into an order.
//
// Contract:
//   - Checkout requires an active signed-in identity.
//   - The cart is re-read from storage and submitted with clamped quantities.
//   - An empty cart is rejected with common.ErrEmptyCart.
//   - The cart is cleared only after the API accepted the order; on any
//     failure it is left as it was.
type CheckoutService interface {
	Checkout(ctx context.Context) (*models.Order, error)
}

// IdentityGate is satisfied by *auth.Resolver.
type IdentityGate interface {
	Require(role models.Role) (*models.Identity, error)
}

// Cart is satisfied by *cart.Store.
type Cart interface {
	Refresh(ctx context.Context) error
	Entries() []models.CartEntry
	Subtotal() decimal.Decimal
	Clear(ctx context.Context) error
}

type OrderPlacer interface {
	CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error)
}

type checkoutService struct {
	gate   IdentityGate
	cart   Cart
	orders OrderPlacer
	log    logging.Logger
	newKey func() string
}

func NewCheckoutService(gate IdentityGate, cart Cart, orders OrderPlacer, log logging.Logger) CheckoutService {
	return &checkoutService{gate: gate, cart: cart, orders: orders, log: log.With("component", "checkout"), newKey: uuid.NewString}
}

func (s *checkoutService) Checkout(ctx context.Context) (*models.Order, error) {
	id, err := s.gate.Require(models.RoleUser)
	if err != nil {
		return nil, err
	}
	if !id.IsActive() {
		return nil, fmt.Errorf("%w: account is %s", common.ErrUnauthorized, id.Status)
	}

	if err := s.cart.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	entries := s.cart.Entries()
	if len(entries) == 0 {
		return nil, common.ErrEmptyCart
	}

	req := models.OrderRequest{
		IdempotencyKey: s.newKey(),
		Items:          make([]models.OrderItem, 0, len(entries)),
		Total:          s.cart.Subtotal(),
	}
	for _, e := range entries {
		req.Items = append(req.Items, models.OrderItem{
			ProductID: e.Product.ID,
			Quantity:  e.Quantity,
			UnitPrice: e.Product.Price,
		})
	}

	order, err := s.orders.CreateOrder(ctx, req)
	if err != nil {
		s.log.Warn(ctx, "order rejected, cart kept", "error", err)
		return nil, err
	}

	if err := s.cart.Clear(ctx); err != nil {
		s.log.Warn(ctx, "order placed but cart could not be cleared", "order", order.ID, "error", err)
	}
	s.log.Info(ctx, "order placed", "order", order.ID, "items", len(req.Items), "user", id.Username)
	return order, nil
}
