package models

import "github.com/shopspring/decimal"

// CartEntry is one line of the cart. At most one entry exists per product id.
type CartEntry struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// ClampQuantity bounds q to [1, stock]. A non-positive stock means the
// ceiling is unknown and only the lower bound applies.
func ClampQuantity(q, stock int) int {
	if q < 1 {
		q = 1
	}
	if stock > 0 && q > stock {
		q = stock
	}
	return q
}

// Clamped returns a copy of e with Quantity bounded by the product stock.
func (e CartEntry) Clamped() CartEntry {
	e.Quantity = ClampQuantity(e.Quantity, e.Product.Stock)
	return e
}

// LineTotal is price × quantity.
func (e CartEntry) LineTotal() decimal.Decimal {
	return e.Product.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}
