package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OfferSide selects which of the two offer tables a row lives in.
type OfferSide string

const (
	// OfferSideDeposit: a merchant sells balance to counterparties who pay
	// off-platform. Merchant funds are escrowed at offer creation.
	OfferSideDeposit OfferSide = "deposit"
	// OfferSideWithdraw: a merchant buys balance from counterparties and pays
	// out via bank transfer. Counterparty funds are escrowed at order creation.
	OfferSideWithdraw OfferSide = "withdraw"
)

// Offer is a standing liquidity commitment. Never physically deleted; it is
// retired by is_active=false and amount_available=0.
type Offer struct {
	ID              uint64          `db:"id"`
	MerchantID      uint64          `db:"merchant_id"`
	Currency        string          `db:"currency"`
	AmountAvailable decimal.Decimal `db:"amount_available"`
	MinAmount       decimal.Decimal `db:"min_amount"`
	MaxAmount       decimal.Decimal `db:"max_amount"`
	UnitPrice       decimal.Decimal `db:"unit_price"`
	IsActive        bool            `db:"is_active"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}
