package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// OrderRequest is submitted by checkout. IdempotencyKey lets the API drop
// duplicate submissions of the same cart.
type OrderRequest struct {
	IdempotencyKey string          `json:"idempotencyKey"`
	Items          []OrderItem     `json:"items"`
	Total          decimal.Decimal `json:"total"`
}

type Order struct {
	ID        int64           `json:"id"`
	Status    string          `json:"status"`
	Items     []OrderItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
}
