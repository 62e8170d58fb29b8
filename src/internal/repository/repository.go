package repository

import (
	"context"
	"errors"

	"ledger-service/src/pkg/databases/mysql"

	driver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

var (
	ErrWalletNotFound          = errors.New("wallet not found")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrInsufficientEscrow      = errors.New("insufficient escrowed funds")
	ErrInvalidAmount           = errors.New("amount must be positive")
	ErrOfferNotFound           = errors.New("offer not found")
	ErrOfferInactive           = errors.New("offer is not active")
	ErrOfferInventoryExhausted = errors.New("offer inventory exhausted")
	ErrAmountOutOfRange        = errors.New("amount outside offer bounds")
	ErrSelfTrade               = errors.New("cannot trade against own offer")
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStateTransition  = errors.New("invalid order state transition")
	ErrUnauthorizedParty       = errors.New("caller is not a party to this order")
	ErrDepositNotFound         = errors.New("deposit not found")
	ErrRetryTaskNotDue         = errors.New("retry task is not due")
)

// withTransaction runs fn inside a transaction, rolling back unless fn
// succeeds and the commit goes through.
func withTransaction(ctx context.Context, dbi mysql.DBInterface, fn func(tx *sqlx.Tx) error) error {
	db, err := dbi.GetDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// IsDuplicateEntry reports a MySQL unique-key violation (error 1062).
func IsDuplicateEntry(err error) bool {
	var mysqlErr *driver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// IsLockContention reports lock-wait timeout (1205) or deadlock victim (1213),
// both of which are safe to retry.
func IsLockContention(err error) bool {
	var mysqlErr *driver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1205 || mysqlErr.Number == 1213
	}
	return false
}
