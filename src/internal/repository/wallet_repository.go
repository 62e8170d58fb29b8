package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/pkg/databases/mysql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type WalletRepository struct {
	DB mysql.DBInterface
}

func NewWalletRepository(db mysql.DBInterface) *WalletRepository {
	return &WalletRepository{DB: db}
}

// LedgerMutation describes one balance change request against a wallet.
type LedgerMutation struct {
	WalletID  uint64
	Amount    decimal.Decimal
	Category  string
	RequestID string
	Reference string
	Metadata  []byte
}

// LedgerResult is the committed outcome of a ledger operation.
type LedgerResult struct {
	Wallet           *entity.Wallet
	Transaction      *entity.WalletTransaction
	AlreadyProcessed bool
}

const walletColumns = `id, user_id, currency, balance, locked_balance,
	channel_provider, channel_account_number, channel_bank_name, created_at, updated_at`

func (r *WalletRepository) FindByUserIDAndCurrency(ctx context.Context, userID uint64, currency string) (*entity.Wallet, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var wallet entity.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = ? AND currency = ?`
	if err := db.GetContext(ctx, &wallet, query, userID, currency); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *WalletRepository) FindByID(ctx context.Context, walletID uint64) (*entity.Wallet, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var wallet entity.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = ?`
	if err := db.GetContext(ctx, &wallet, query, walletID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

// FindByChannelAccountNumber resolves the wallet linked to an inbound payment
// channel (virtual account number issued by a provider).
func (r *WalletRepository) FindByChannelAccountNumber(ctx context.Context, accountNumber string) (*entity.Wallet, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var wallet entity.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE channel_account_number = ?`
	if err := db.GetContext(ctx, &wallet, query, accountNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *WalletRepository) ListTransactions(ctx context.Context, walletID uint64, page, limit int) ([]entity.WalletTransaction, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	var transactions []entity.WalletTransaction
	query := `SELECT id, wallet_id, direction, category, amount, balance_before, balance_after,
			status, request_id, reference, metadata, created_at
		FROM wallet_transactions
		WHERE wallet_id = ?
		ORDER BY id DESC
		LIMIT ? OFFSET ?`
	if err := db.SelectContext(ctx, &transactions, query, walletID, limit, (page-1)*limit); err != nil {
		return nil, err
	}
	return transactions, nil
}

// Lock moves amount from spendable to escrowed balance.
func (r *WalletRepository) Lock(ctx context.Context, m LedgerMutation) (*LedgerResult, error) {
	var result *LedgerResult
	err := withTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		var err error
		result, err = lockFundsTx(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Release removes amount from escrowed balance without returning it to
// spendable. Used when escrowed funds are being paid out to a counterparty.
func (r *WalletRepository) Release(ctx context.Context, m LedgerMutation) (*LedgerResult, error) {
	var result *LedgerResult
	err := withTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		var err error
		result, err = releaseFundsTx(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Refund moves amount from escrowed back to spendable balance.
func (r *WalletRepository) Refund(ctx context.Context, m LedgerMutation) (*LedgerResult, error) {
	var result *LedgerResult
	err := withTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		var err error
		result, err = refundFundsTx(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Credit adds amount to spendable balance. Idempotent per reference: a second
// call with the same reference reports AlreadyProcessed without re-crediting.
func (r *WalletRepository) Credit(ctx context.Context, m LedgerMutation) (*LedgerResult, error) {
	var result *LedgerResult
	err := withTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		var err error
		result, err = creditTx(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RestoreEscrow compensates a Release whose follow-up credit failed: it puts
// the amount back into the wallet and locks it again, atomically, leaving the
// wallet exactly as it was before the Release. Writes a credit entry and a
// debit entry under the same reference.
func (r *WalletRepository) RestoreEscrow(ctx context.Context, m LedgerMutation) (*LedgerResult, error) {
	var result *LedgerResult
	err := withTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		if _, err := creditTx(ctx, tx, m); err != nil {
			return err
		}
		var err error
		result, err = lockFundsTx(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Debit subtracts amount from spendable balance.
func (r *WalletRepository) Debit(ctx context.Context, m LedgerMutation) (*LedgerResult, error) {
	var result *LedgerResult
	err := withTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		var err error
		result, err = debitTx(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// --- tx-scoped helpers shared with the offer/order repositories ---

func getWalletForUpdateTx(ctx context.Context, tx *sqlx.Tx, walletID uint64) (*entity.Wallet, error) {
	var wallet entity.Wallet
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = ? FOR UPDATE`
	if err := tx.GetContext(ctx, &wallet, query, walletID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

func updateWalletBalancesTx(ctx context.Context, tx *sqlx.Tx, wallet *entity.Wallet) error {
	wallet.UpdatedAt = time.Now().UTC()
	_, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance = ?, locked_balance = ?, updated_at = ? WHERE id = ?`,
		wallet.Balance, wallet.LockedBalance, wallet.UpdatedAt, wallet.ID)
	return err
}

func insertTransactionTx(ctx context.Context, tx *sqlx.Tx, txn *entity.WalletTransaction) error {
	txn.CreatedAt = time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO wallet_transactions
			(wallet_id, direction, category, amount, balance_before, balance_after,
			 status, request_id, reference, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.WalletID, txn.Direction, txn.Category, txn.Amount, txn.BalanceBefore,
		txn.BalanceAfter, txn.Status, txn.RequestID, txn.Reference, txn.Metadata, txn.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err == nil {
		txn.ID = uint64(id)
	}
	return nil
}

func hasSuccessfulCreditTx(ctx context.Context, tx *sqlx.Tx, reference, category string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
			SELECT 1 FROM wallet_transactions
			WHERE reference = ? AND category = ? AND direction = 'credit' AND status = 'success'
			LIMIT 1
		)`
	if err := tx.GetContext(ctx, &exists, query, reference, category); err != nil {
		return false, err
	}
	return exists, nil
}

func lockFundsTx(ctx context.Context, tx *sqlx.Tx, m LedgerMutation) (*LedgerResult, error) {
	if m.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	wallet, err := getWalletForUpdateTx(ctx, tx, m.WalletID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance.LessThan(m.Amount) {
		return nil, ErrInsufficientFunds
	}

	before := wallet.Balance
	wallet.Balance = wallet.Balance.Sub(m.Amount)
	wallet.LockedBalance = wallet.LockedBalance.Add(m.Amount)
	if err := updateWalletBalancesTx(ctx, tx, wallet); err != nil {
		return nil, err
	}

	txn := &entity.WalletTransaction{
		WalletID:      wallet.ID,
		Direction:     entity.TransactionDirectionDebit,
		Category:      m.Category,
		Amount:        m.Amount,
		BalanceBefore: before,
		BalanceAfter:  wallet.Balance,
		Status:        entity.TransactionStatusSuccess,
		RequestID:     m.RequestID,
		Reference:     m.Reference,
		Metadata:      m.Metadata,
	}
	if err := insertTransactionTx(ctx, tx, txn); err != nil {
		return nil, err
	}
	return &LedgerResult{Wallet: wallet, Transaction: txn}, nil
}

func releaseFundsTx(ctx context.Context, tx *sqlx.Tx, m LedgerMutation) (*LedgerResult, error) {
	if m.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	wallet, err := getWalletForUpdateTx(ctx, tx, m.WalletID)
	if err != nil {
		return nil, err
	}
	if wallet.LockedBalance.LessThan(m.Amount) {
		return nil, ErrInsufficientEscrow
	}

	wallet.LockedBalance = wallet.LockedBalance.Sub(m.Amount)
	if err := updateWalletBalancesTx(ctx, tx, wallet); err != nil {
		return nil, err
	}

	// Spendable balance is untouched: the escrowed amount leaves this wallet
	// and is credited to the counterparty by the caller.
	txn := &entity.WalletTransaction{
		WalletID:      wallet.ID,
		Direction:     entity.TransactionDirectionDebit,
		Category:      m.Category,
		Amount:        m.Amount,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  wallet.Balance,
		Status:        entity.TransactionStatusSuccess,
		RequestID:     m.RequestID,
		Reference:     m.Reference,
		Metadata:      m.Metadata,
	}
	if err := insertTransactionTx(ctx, tx, txn); err != nil {
		return nil, err
	}
	return &LedgerResult{Wallet: wallet, Transaction: txn}, nil
}

func refundFundsTx(ctx context.Context, tx *sqlx.Tx, m LedgerMutation) (*LedgerResult, error) {
	if m.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	wallet, err := getWalletForUpdateTx(ctx, tx, m.WalletID)
	if err != nil {
		return nil, err
	}
	if wallet.LockedBalance.LessThan(m.Amount) {
		return nil, ErrInsufficientEscrow
	}

	before := wallet.Balance
	wallet.LockedBalance = wallet.LockedBalance.Sub(m.Amount)
	wallet.Balance = wallet.Balance.Add(m.Amount)
	if err := updateWalletBalancesTx(ctx, tx, wallet); err != nil {
		return nil, err
	}

	txn := &entity.WalletTransaction{
		WalletID:      wallet.ID,
		Direction:     entity.TransactionDirectionCredit,
		Category:      m.Category,
		Amount:        m.Amount,
		BalanceBefore: before,
		BalanceAfter:  wallet.Balance,
		Status:        entity.TransactionStatusSuccess,
		RequestID:     m.RequestID,
		Reference:     m.Reference,
		Metadata:      m.Metadata,
	}
	if err := insertTransactionTx(ctx, tx, txn); err != nil {
		return nil, err
	}
	return &LedgerResult{Wallet: wallet, Transaction: txn}, nil
}

func creditTx(ctx context.Context, tx *sqlx.Tx, m LedgerMutation) (*LedgerResult, error) {
	if m.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	// The wallet row lock serializes same-reference credits; the unique index
	// on (reference, direction, category) backstops cross-wallet races.
	wallet, err := getWalletForUpdateTx(ctx, tx, m.WalletID)
	if err != nil {
		return nil, err
	}

	if m.Reference != "" {
		exists, err := hasSuccessfulCreditTx(ctx, tx, m.Reference, m.Category)
		if err != nil {
			return nil, err
		}
		if exists {
			return &LedgerResult{Wallet: wallet, AlreadyProcessed: true}, nil
		}
	}

	before := wallet.Balance
	wallet.Balance = wallet.Balance.Add(m.Amount)
	if err := updateWalletBalancesTx(ctx, tx, wallet); err != nil {
		return nil, err
	}

	txn := &entity.WalletTransaction{
		WalletID:      wallet.ID,
		Direction:     entity.TransactionDirectionCredit,
		Category:      m.Category,
		Amount:        m.Amount,
		BalanceBefore: before,
		BalanceAfter:  wallet.Balance,
		Status:        entity.TransactionStatusSuccess,
		RequestID:     m.RequestID,
		Reference:     m.Reference,
		Metadata:      m.Metadata,
	}
	if err := insertTransactionTx(ctx, tx, txn); err != nil {
		if IsDuplicateEntry(err) {
			return &LedgerResult{Wallet: wallet, AlreadyProcessed: true}, nil
		}
		return nil, err
	}
	return &LedgerResult{Wallet: wallet, Transaction: txn}, nil
}

func debitTx(ctx context.Context, tx *sqlx.Tx, m LedgerMutation) (*LedgerResult, error) {
	if m.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	wallet, err := getWalletForUpdateTx(ctx, tx, m.WalletID)
	if err != nil {
		return nil, err
	}
	if wallet.Balance.LessThan(m.Amount) {
		return nil, ErrInsufficientFunds
	}

	before := wallet.Balance
	wallet.Balance = wallet.Balance.Sub(m.Amount)
	if err := updateWalletBalancesTx(ctx, tx, wallet); err != nil {
		return nil, err
	}

	txn := &entity.WalletTransaction{
		WalletID:      wallet.ID,
		Direction:     entity.TransactionDirectionDebit,
		Category:      m.Category,
		Amount:        m.Amount,
		BalanceBefore: before,
		BalanceAfter:  wallet.Balance,
		Status:        entity.TransactionStatusSuccess,
		RequestID:     m.RequestID,
		Reference:     m.Reference,
		Metadata:      m.Metadata,
	}
	if err := insertTransactionTx(ctx, tx, txn); err != nil {
		return nil, err
	}
	return &LedgerResult{Wallet: wallet, Transaction: txn}, nil
}
