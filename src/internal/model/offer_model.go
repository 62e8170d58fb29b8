package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateOfferRequest struct {
	MerchantID uint64          `json:"merchantId" validate:"required"`
	Side       string          `json:"side" validate:"required,oneof=deposit withdraw"`
	Currency   string          `json:"currency" validate:"required,uppercase,len=3"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	MinAmount  decimal.Decimal `json:"minAmount" validate:"required"`
	MaxAmount  decimal.Decimal `json:"maxAmount" validate:"required"`
	UnitPrice  decimal.Decimal `json:"unitPrice" validate:"required"`
}

type DeactivateOfferRequest struct {
	MerchantID uint64 `json:"merchantId" validate:"required"`
	Side       string `json:"side" validate:"required,oneof=deposit withdraw"`
	OfferID    uint64 `json:"offerId" validate:"required"`
}

type GetOfferRequest struct {
	Side    string `json:"side" validate:"required,oneof=deposit withdraw"`
	OfferID uint64 `json:"offerId" validate:"required"`
}

type ListOffersRequest struct {
	Side     string `json:"side" validate:"required,oneof=deposit withdraw"`
	Currency string `json:"currency" validate:"required,uppercase,len=3"`
	Page     int    `json:"page" validate:"omitempty,min=1"`
	Limit    int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

type OfferResponse struct {
	ID              uint64          `json:"id"`
	MerchantID      uint64          `json:"merchantId"`
	Side            string          `json:"side"`
	Currency        string          `json:"currency"`
	AmountAvailable decimal.Decimal `json:"amountAvailable"`
	MinAmount       decimal.Decimal `json:"minAmount"`
	MaxAmount       decimal.Decimal `json:"maxAmount"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	IsActive        bool            `json:"isActive"`
	CreatedAt       time.Time       `json:"createdAt"`
}
