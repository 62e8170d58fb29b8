package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DepositStatusPending   = "pending"
	DepositStatusCredited  = "credited"
	DepositStatusFailed    = "failed"
	DepositStatusCancelled = "cancelled"
)

// Deposit records one inbound settlement notification. ProviderReference is
// unique: it is the durable idempotency key for webhook delivery.
type Deposit struct {
	ID                uint64          `db:"id"`
	WalletID          uint64          `db:"wallet_id"`
	Provider          string          `db:"provider"`
	ProviderReference string          `db:"provider_reference"`
	Amount            decimal.Decimal `db:"amount"`
	Status            string          `db:"status"`
	RawPayload        []byte          `db:"raw_payload"` // JSON
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}
