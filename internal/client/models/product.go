// Package models defines the storefront value types shared by the stores,
// the API client and the front ends.
package models

import "github.com/shopspring/decimal"

// Product is the snapshot of a catalog item kept inside carts and wishlists.
// Stock may be stale by the time the snapshot is read again.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}
