package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderEvent is published after an escrow order transition commits.
type OrderEvent struct {
	EventID         string          `json:"event_id"`
	OrderID         uint64          `json:"order_id"`
	Side            string          `json:"side"`
	MerchantID      uint64          `json:"merchant_id"`
	CounterpartyID  uint64          `json:"counterparty_id"`
	Currency        string          `json:"currency"`
	AmountRequested decimal.Decimal `json:"amount_requested"`
	Status          string          `json:"status"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

func (e *OrderEvent) GetId() string {
	return e.EventID
}
