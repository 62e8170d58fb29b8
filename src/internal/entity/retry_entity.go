package entity

import (
	"database/sql"
	"time"
)

const (
	RetryStatusPending         = "pending"
	RetryStatusSucceeded       = "succeeded"
	RetryStatusFailedTransient = "failed_transient"
	RetryStatusFailedPermanent = "failed_permanent"
)

// WebhookRetryTask is a durable record of a settlement attempt that must be
// replayed later under backoff. failed_transient and failed_permanent are
// terminal and require operator attention.
type WebhookRetryTask struct {
	ID                uint64         `db:"id"`
	Provider          string         `db:"provider"`
	ProviderReference string         `db:"provider_reference"`
	Payload           []byte         `db:"payload"` // JSON snapshot
	Signature         string         `db:"signature"`
	Status            string         `db:"status"`
	RetryCount        int            `db:"retry_count"`
	NextAttemptAt     time.Time      `db:"next_attempt_at"`
	LastError         sql.NullString `db:"last_error"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

// RetryTerminal reports whether the task will never be attempted again.
func RetryTerminal(status string) bool {
	return status == RetryStatusSucceeded ||
		status == RetryStatusFailedTransient ||
		status == RetryStatusFailedPermanent
}
