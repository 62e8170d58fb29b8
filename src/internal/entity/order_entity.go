package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Order is one trade taken against an Offer. TotalPrice is computed once at
// creation and frozen.
type Order struct {
	ID              uint64          `db:"id"`
	OfferID         uint64          `db:"offer_id"`
	MerchantID      uint64          `db:"merchant_id"`
	CounterpartyID  uint64          `db:"counterparty_id"`
	Currency        string          `db:"currency"`
	AmountRequested decimal.Decimal `db:"amount_requested"`
	TotalPrice      decimal.Decimal `db:"total_price"`
	Reference       string          `db:"reference"`
	Status          string          `db:"status"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// OrderTerminal reports whether no further transition is allowed.
func OrderTerminal(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}
