package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionEvent is published after a ledger mutation commits. Downstream
// consumers (notifications, bonus unlocking) react to it independently.
type TransactionEvent struct {
	EventID   string          `json:"event_id"`
	WalletID  uint64          `json:"wallet_id"`
	UserID    uint64          `json:"user_id"`
	Currency  string          `json:"currency"`
	Direction string          `json:"direction"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func (e *TransactionEvent) GetId() string {
	return e.EventID
}
