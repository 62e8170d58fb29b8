package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	UserID  uint64          `json:"userId" validate:"required"`
	Side    string          `json:"side" validate:"required,oneof=deposit withdraw"`
	OfferID uint64          `json:"offerId" validate:"required"`
	Amount  decimal.Decimal `json:"amount" validate:"required"`
}

// OrderActionRequest drives the paid/confirm/cancel transitions.
type OrderActionRequest struct {
	UserID  uint64 `json:"userId" validate:"required"`
	Side    string `json:"side" validate:"required,oneof=deposit withdraw"`
	OrderID uint64 `json:"orderId" validate:"required"`
}

type OrderResponse struct {
	ID              uint64          `json:"id"`
	OfferID         uint64          `json:"offerId"`
	Side            string          `json:"side"`
	MerchantID      uint64          `json:"merchantId"`
	CounterpartyID  uint64          `json:"counterpartyId"`
	Currency        string          `json:"currency"`
	AmountRequested decimal.Decimal `json:"amountRequested"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Reference       string          `json:"reference"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
