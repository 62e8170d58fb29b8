package entity

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionDirectionCredit = "credit"
	TransactionDirectionDebit  = "debit"

	TransactionCategoryDeposit    = "deposit"
	TransactionCategoryWithdrawal = "withdrawal"
	TransactionCategoryTrade      = "trade"
	TransactionCategoryBonus      = "bonus"
	TransactionCategoryBill       = "bill"
	TransactionCategoryTransfer   = "transfer"

	TransactionStatusPending = "pending"
	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
)

// Wallet holds a user's spendable and escrowed balance. LockedBalance is only
// ever changed by the lock/release/refund ledger operations.
type Wallet struct {
	ID                   uint64          `db:"id"`
	UserID               uint64          `db:"user_id"`
	Currency             string          `db:"currency"`
	Balance              decimal.Decimal `db:"balance"`
	LockedBalance        decimal.Decimal `db:"locked_balance"`
	ChannelProvider      sql.NullString  `db:"channel_provider"`
	ChannelAccountNumber sql.NullString  `db:"channel_account_number"`
	ChannelBankName      sql.NullString  `db:"channel_bank_name"`
	CreatedAt            time.Time       `db:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at"`
}

// WalletTransaction is append-only. Only Status may change after insert
// (pending -> success|failed).
type WalletTransaction struct {
	ID            uint64          `db:"id"`
	WalletID      uint64          `db:"wallet_id"`
	Direction     string          `db:"direction"`
	Category      string          `db:"category"`
	Amount        decimal.Decimal `db:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	Status        string          `db:"status"`
	RequestID     string          `db:"request_id"`
	Reference     string          `db:"reference"`
	Metadata      []byte          `db:"metadata"` // JSON
	CreatedAt     time.Time       `db:"created_at"`
}
