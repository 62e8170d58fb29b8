package model

import "github.com/shopspring/decimal"

// Webhook processing outcomes. The endpoint always acknowledges payloads it has
// durably recorded, so upstream providers stop re-delivering.
const (
	WebhookOutcomeCredited         = "accepted-and-credited"
	WebhookOutcomeIgnored          = "accepted-and-ignored"
	WebhookOutcomeAlreadyProcessed = "already-processed"
	WebhookOutcomeBadSignature     = "rejected-bad-signature"
	WebhookOutcomeTooLarge         = "rejected-too-large"
	WebhookOutcomeWillRetry        = "internal-error-will-retry"
)

type WebhookRequest struct {
	Provider  string `json:"provider" validate:"required"`
	Signature string `json:"signature"`
	Payload   []byte `json:"payload" validate:"required"`
}

// SettlementPayload is the provider notification body. Providers disagree on
// where the destination account number lives, so every known location is
// modelled and tried in priority order.
type SettlementPayload struct {
	Reference     string          `json:"reference"`
	Amount        decimal.Decimal `json:"amount"`
	AccountNumber string          `json:"account_number"`
	PaymentDetail *struct {
		AccountNumber string `json:"account_number"`
	} `json:"payment_detail"`
	Sender *struct {
		AccountNumber string `json:"account_number"`
	} `json:"sender"`
}

type WebhookResponse struct {
	Outcome   string `json:"outcome"`
	Reference string `json:"reference,omitempty"`
}

type SweepResponse struct {
	Processed   int `json:"processed"`
	Succeeded   int `json:"succeeded"`
	Rescheduled int `json:"rescheduled"`
	Terminal    int `json:"terminal"`
}
