package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/pkg/databases/mysql"

	"github.com/jmoiron/sqlx"
)

type RetryRepository struct {
	DB mysql.DBInterface
}

func NewRetryRepository(db mysql.DBInterface) *RetryRepository {
	return &RetryRepository{DB: db}
}

const retryColumns = `id, provider, provider_reference, payload, signature,
	status, retry_count, next_attempt_at, last_error, created_at, updated_at`

func (r *RetryRepository) Create(ctx context.Context, task *entity.WebhookRetryTask) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if task.Status == "" {
		task.Status = entity.RetryStatusPending
	}
	task.CreatedAt = now
	task.UpdatedAt = now

	res, err := db.ExecContext(ctx,
		`INSERT INTO webhook_retry_tasks
			(provider, provider_reference, payload, signature, status, retry_count, next_attempt_at, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.Provider, task.ProviderReference, task.Payload, task.Signature,
		task.Status, task.RetryCount, task.NextAttemptAt, task.LastError, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err == nil {
		task.ID = uint64(id)
	}
	return nil
}

func (r *RetryRepository) FindByID(ctx context.Context, taskID uint64) (*entity.WebhookRetryTask, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var task entity.WebhookRetryTask
	query := `SELECT ` + retryColumns + ` FROM webhook_retry_tasks WHERE id = ?`
	if err := db.GetContext(ctx, &task, query, taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRetryTaskNotDue
		}
		return nil, err
	}
	return &task, nil
}

// FindDue lists pending tasks whose next attempt time has passed, oldest first.
func (r *RetryRepository) FindDue(ctx context.Context, limit int) ([]entity.WebhookRetryTask, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}

	var tasks []entity.WebhookRetryTask
	query := `SELECT ` + retryColumns + ` FROM webhook_retry_tasks
		WHERE status = ? AND next_attempt_at <= ?
		ORDER BY next_attempt_at ASC
		LIMIT ?`
	if err := db.SelectContext(ctx, &tasks, query, entity.RetryStatusPending, time.Now().UTC(), limit); err != nil {
		return nil, err
	}
	return tasks, nil
}

// claimLease is how far Claim pushes next_attempt_at into the future. Any
// replay finishes well within it, and UpdateAfterAttempt overwrites it with
// the real schedule anyway.
const claimLease = 5 * time.Minute

// Claim locks the task row, verifies it is still pending and due, then bumps
// retry_count and leases next_attempt_at forward, so a sweep and the scheduled
// worker cannot both replay the same task: the loser of the row lock fails the
// due-time re-check. The lock is held only for the claim itself; the settlement
// replay runs outside it against the durable deposit idempotency key.
func (r *RetryRepository) Claim(ctx context.Context, taskID uint64) (*entity.WebhookRetryTask, error) {
	var task *entity.WebhookRetryTask
	err := withTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		var row entity.WebhookRetryTask
		query := `SELECT ` + retryColumns + ` FROM webhook_retry_tasks WHERE id = ? FOR UPDATE`
		if err := tx.GetContext(ctx, &row, query, taskID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRetryTaskNotDue
			}
			return err
		}
		now := time.Now().UTC()
		if row.Status != entity.RetryStatusPending || row.NextAttemptAt.After(now) {
			return ErrRetryTaskNotDue
		}

		row.RetryCount++
		row.NextAttemptAt = now.Add(claimLease)
		row.UpdatedAt = now
		if _, err := tx.ExecContext(ctx,
			`UPDATE webhook_retry_tasks SET retry_count = ?, next_attempt_at = ?, updated_at = ? WHERE id = ?`,
			row.RetryCount, row.NextAttemptAt, row.UpdatedAt, row.ID); err != nil {
			return err
		}
		task = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateAfterAttempt records the outcome of one replay. For a task staying
// pending the caller supplies the next attempt time; terminal statuses keep
// the row for operator inspection.
func (r *RetryRepository) UpdateAfterAttempt(ctx context.Context, taskID uint64, status string, nextAttemptAt time.Time, lastError string) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	lastErr := sql.NullString{String: lastError, Valid: lastError != ""}
	_, err = db.ExecContext(ctx,
		`UPDATE webhook_retry_tasks SET status = ?, next_attempt_at = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		status, nextAttemptAt, lastErr, time.Now().UTC(), taskID)
	return err
}
