package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/pkg/databases/mysql"
)

type DepositRepository struct {
	DB mysql.DBInterface
}

func NewDepositRepository(db mysql.DBInterface) *DepositRepository {
	return &DepositRepository{DB: db}
}

const depositColumns = `id, wallet_id, provider, provider_reference, amount,
	status, raw_payload, created_at, updated_at`

func (r *DepositRepository) FindByProviderReference(ctx context.Context, provider, providerReference string) (*entity.Deposit, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var deposit entity.Deposit
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE provider = ? AND provider_reference = ?`
	if err := db.GetContext(ctx, &deposit, query, provider, providerReference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDepositNotFound
		}
		return nil, err
	}
	return &deposit, nil
}

// Create inserts a pending deposit. The unique key on (provider,
// provider_reference) makes the insert the arbiter between concurrent
// deliveries of the same notification: the loser gets a duplicate-entry
// error the caller resolves with FindByProviderReference.
func (r *DepositRepository) Create(ctx context.Context, deposit *entity.Deposit) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	deposit.Status = entity.DepositStatusPending
	deposit.CreatedAt = now
	deposit.UpdatedAt = now

	res, err := db.ExecContext(ctx,
		`INSERT INTO deposits
			(wallet_id, provider, provider_reference, amount, status, raw_payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		deposit.WalletID, deposit.Provider, deposit.ProviderReference, deposit.Amount,
		deposit.Status, deposit.RawPayload, deposit.CreatedAt, deposit.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err == nil {
		deposit.ID = uint64(id)
	}
	return nil
}

func (r *DepositRepository) UpdateStatus(ctx context.Context, depositID uint64, status string) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`UPDATE deposits SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), depositID)
	return err
}
