package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/pkg/databases/mysql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type OfferRepository struct {
	DB mysql.DBInterface
}

func NewOfferRepository(db mysql.DBInterface) *OfferRepository {
	return &OfferRepository{DB: db}
}

func offerTable(side entity.OfferSide) string {
	if side == entity.OfferSideWithdraw {
		return "withdraw_offers"
	}
	return "deposit_offers"
}

const offerColumns = `id, merchant_id, currency, amount_available, min_amount,
	max_amount, unit_price, is_active, created_at, updated_at`

// CreateOffer inserts a new offer. For the deposit side the merchant's funds
// are locked into escrow in the same transaction, so a crash can never leave
// an offer without its backing escrow.
func (r *OfferRepository) CreateOffer(ctx context.Context, side entity.OfferSide, offer *entity.Offer, merchantWalletID uint64, requestID string) error {
	return withTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		if side == entity.OfferSideDeposit {
			_, err := lockFundsTx(ctx, tx, LedgerMutation{
				WalletID:  merchantWalletID,
				Amount:    offer.AmountAvailable,
				Category:  entity.TransactionCategoryTrade,
				RequestID: requestID,
				Reference: fmt.Sprintf("offer-lock:%s", requestID),
			})
			if err != nil {
				return err
			}
		}
		return insertOfferTx(ctx, tx, side, offer)
	})
}

func insertOfferTx(ctx context.Context, tx *sqlx.Tx, side entity.OfferSide, offer *entity.Offer) error {
	now := time.Now().UTC()
	offer.CreatedAt = now
	offer.UpdatedAt = now
	offer.IsActive = true

	query := `INSERT INTO ` + offerTable(side) + `
			(merchant_id, currency, amount_available, min_amount, max_amount, unit_price, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, query,
		offer.MerchantID, offer.Currency, offer.AmountAvailable, offer.MinAmount,
		offer.MaxAmount, offer.UnitPrice, offer.IsActive, offer.CreatedAt, offer.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err == nil {
		offer.ID = uint64(id)
	}
	return nil
}

func (r *OfferRepository) FindByID(ctx context.Context, side entity.OfferSide, offerID uint64) (*entity.Offer, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var offer entity.Offer
	query := `SELECT ` + offerColumns + ` FROM ` + offerTable(side) + ` WHERE id = ?`
	if err := db.GetContext(ctx, &offer, query, offerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return &offer, nil
}

func (r *OfferRepository) ListActive(ctx context.Context, side entity.OfferSide, currency string, page, limit int) ([]entity.Offer, error) {
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

	var offers []entity.Offer
	query := `SELECT ` + offerColumns + ` FROM ` + offerTable(side) + `
		WHERE is_active = 1 AND currency = ?
		ORDER BY unit_price ASC, id ASC
		LIMIT ? OFFSET ?`
	if err := db.SelectContext(ctx, &offers, query, currency, limit, (page-1)*limit); err != nil {
		return nil, err
	}
	return offers, nil
}

// Deactivate pulls an offer off the book. Deposit-side offers refund the
// merchant's remaining escrowed inventory in the same transaction. Returns the
// amount of inventory that was withdrawn.
func (r *OfferRepository) Deactivate(ctx context.Context, side entity.OfferSide, offerID, merchantID, merchantWalletID uint64, requestID string) (decimal.Decimal, error) {
	var remaining decimal.Decimal
	err := withTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		// Wallet row before offer row, per the global lock order.
		if side == entity.OfferSideDeposit {
			if _, err := getWalletForUpdateTx(ctx, tx, merchantWalletID); err != nil {
				return err
			}
		}

		offer, err := getOfferForUpdateTx(ctx, tx, side, offerID)
		if err != nil {
			return err
		}
		if offer.MerchantID != merchantID {
			return ErrUnauthorizedParty
		}
		if !offer.IsActive {
			return ErrOfferInactive
		}

		remaining = offer.AmountAvailable
		if side == entity.OfferSideDeposit && remaining.GreaterThan(decimal.Zero) {
			if _, err := refundFundsTx(ctx, tx, LedgerMutation{
				WalletID:  merchantWalletID,
				Amount:    remaining,
				Category:  entity.TransactionCategoryTrade,
				RequestID: requestID,
				Reference: fmt.Sprintf("offer-close:%d", offerID),
			}); err != nil {
				return err
			}
		}

		offer.AmountAvailable = decimal.Zero
		offer.IsActive = false
		return updateOfferTx(ctx, tx, side, offer)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return remaining, nil
}

// --- tx-scoped helpers shared with the order repository ---

func getOfferForUpdateTx(ctx context.Context, tx *sqlx.Tx, side entity.OfferSide, offerID uint64) (*entity.Offer, error) {
	var offer entity.Offer
	query := `SELECT ` + offerColumns + ` FROM ` + offerTable(side) + ` WHERE id = ? FOR UPDATE`
	if err := tx.GetContext(ctx, &offer, query, offerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return &offer, nil
}

func updateOfferTx(ctx context.Context, tx *sqlx.Tx, side entity.OfferSide, offer *entity.Offer) error {
	offer.UpdatedAt = time.Now().UTC()
	_, err := tx.ExecContext(ctx,
		`UPDATE `+offerTable(side)+` SET amount_available = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		offer.AmountAvailable, offer.IsActive, offer.UpdatedAt, offer.ID)
	return err
}

// decrementInventoryTx takes amount from the offer, deactivating it when the
// inventory reaches zero. The caller must hold the offer row lock.
func decrementInventoryTx(ctx context.Context, tx *sqlx.Tx, side entity.OfferSide, offer *entity.Offer, amount decimal.Decimal) error {
	if offer.AmountAvailable.LessThan(amount) {
		return ErrOfferInventoryExhausted
	}
	offer.AmountAvailable = offer.AmountAvailable.Sub(amount)
	if offer.AmountAvailable.IsZero() {
		offer.IsActive = false
	}
	return updateOfferTx(ctx, tx, side, offer)
}

// restoreInventoryTx gives cancelled-order inventory back and reactivates the
// offer. The caller must hold the offer row lock.
func restoreInventoryTx(ctx context.Context, tx *sqlx.Tx, side entity.OfferSide, offer *entity.Offer, amount decimal.Decimal) error {
	offer.AmountAvailable = offer.AmountAvailable.Add(amount)
	offer.IsActive = true
	return updateOfferTx(ctx, tx, side, offer)
}
