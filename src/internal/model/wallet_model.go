package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type GetBalanceRequest struct {
	UserID   uint64 `json:"userId" validate:"required"`
	Currency string `json:"currency" validate:"required,uppercase,len=3"`
}

type ListTransactionsRequest struct {
	UserID   uint64 `json:"userId" validate:"required"`
	Currency string `json:"currency" validate:"required,uppercase,len=3"`
	Page     int    `json:"page" validate:"omitempty,min=1"`
	Limit    int    `json:"limit" validate:"omitempty,min=1,max=100"`
}

// LedgerOpRequest drives the Lock/Release/Refund/Credit/Debit primitives.
type LedgerOpRequest struct {
	UserID    uint64          `json:"userId" validate:"required"`
	Currency  string          `json:"currency" validate:"required,uppercase,len=3"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Category  string          `json:"category" validate:"required,oneof=deposit withdrawal trade bonus bill transfer"`
	Reference string          `json:"reference" validate:"required"`
	Metadata  []byte          `json:"metadata,omitempty"`
}

type WalletResponse struct {
	ID            uint64          `json:"id"`
	UserID        uint64          `json:"userId"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	LockedBalance decimal.Decimal `json:"lockedBalance"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type TransactionResponse struct {
	ID            uint64          `json:"id"`
	Direction     string          `json:"direction"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	Status        string          `json:"status"`
	Reference     string          `json:"reference"`
	CreatedAt     time.Time       `json:"createdAt"`
}
