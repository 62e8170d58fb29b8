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
)

type OrderRepository struct {
	DB mysql.DBInterface
}

func NewOrderRepository(db mysql.DBInterface) *OrderRepository {
	return &OrderRepository{DB: db}
}

func orderTable(side entity.OfferSide) string {
	if side == entity.OfferSideWithdraw {
		return "withdraw_orders"
	}
	return "deposit_orders"
}

const orderColumns = `id, offer_id, merchant_id, counterparty_id, currency,
	amount_requested, total_price, reference, status, created_at, updated_at`

func (r *OrderRepository) FindByID(ctx context.Context, side entity.OfferSide, orderID uint64) (*entity.Order, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var order entity.Order
	query := `SELECT ` + orderColumns + ` FROM ` + orderTable(side) + ` WHERE id = ?`
	if err := db.GetContext(ctx, &order, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// CreateOrder admits one trade against an offer. The offer row lock serializes
// concurrent takers: the loser sees the post-decrement inventory. On the
// withdraw side the counterparty's funds are locked in the same transaction
// (wallet row first, then offer row, per the global lock order).
func (r *OrderRepository) CreateOrder(ctx context.Context, side entity.OfferSide, order *entity.Order, counterpartyWalletID uint64, requestID string) error {
	return withTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		if side == entity.OfferSideWithdraw {
			if _, err := lockFundsTx(ctx, tx, LedgerMutation{
				WalletID:  counterpartyWalletID,
				Amount:    order.AmountRequested,
				Category:  entity.TransactionCategoryTrade,
				RequestID: requestID,
				Reference: fmt.Sprintf("order-lock:%s", order.Reference),
			}); err != nil {
				return err
			}
		}

		offer, err := getOfferForUpdateTx(ctx, tx, side, order.OfferID)
		if err != nil {
			return err
		}
		if !offer.IsActive {
			return ErrOfferInactive
		}
		if offer.MerchantID == order.CounterpartyID {
			return ErrSelfTrade
		}
		if order.AmountRequested.LessThan(offer.MinAmount) || order.AmountRequested.GreaterThan(offer.MaxAmount) {
			return ErrAmountOutOfRange
		}
		if err := decrementInventoryTx(ctx, tx, side, offer, order.AmountRequested); err != nil {
			return err
		}

		now := time.Now().UTC()
		order.MerchantID = offer.MerchantID
		order.Currency = offer.Currency
		order.TotalPrice = order.AmountRequested.Mul(offer.UnitPrice)
		order.Status = entity.OrderStatusPending
		order.CreatedAt = now
		order.UpdatedAt = now

		res, err := tx.ExecContext(ctx,
			`INSERT INTO `+orderTable(side)+`
				(offer_id, merchant_id, counterparty_id, currency, amount_requested,
				 total_price, reference, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			order.OfferID, order.MerchantID, order.CounterpartyID, order.Currency,
			order.AmountRequested, order.TotalPrice, order.Reference, order.Status,
			order.CreatedAt, order.UpdatedAt)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err == nil {
			order.ID = uint64(id)
		}
		return nil
	})
}

// payerOnMark is the party asserting the off-platform payment went out:
// the counterparty on the deposit side, the merchant on the withdraw side.
func payerOnMark(side entity.OfferSide, order *entity.Order) uint64 {
	if side == entity.OfferSideWithdraw {
		return order.MerchantID
	}
	return order.CounterpartyID
}

// confirmerOf is the party whose escrow is released on confirmation:
// the merchant on the deposit side, the counterparty on the withdraw side.
func confirmerOf(side entity.OfferSide, order *entity.Order) uint64 {
	if side == entity.OfferSideWithdraw {
		return order.CounterpartyID
	}
	return order.MerchantID
}

// MarkPaid transitions pending -> paid.
func (r *OrderRepository) MarkPaid(ctx context.Context, side entity.OfferSide, orderID, actorID uint64) (*entity.Order, error) {
	var order *entity.Order
	err := withTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		var err error
		order, err = getOrderForUpdateTx(ctx, tx, side, orderID)
		if err != nil {
			return err
		}
		if payerOnMark(side, order) != actorID {
			return ErrUnauthorizedParty
		}
		if order.Status != entity.OrderStatusPending {
			return ErrInvalidStateTransition
		}
		order.Status = entity.OrderStatusPaid
		return updateOrderStatusTx(ctx, tx, side, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ReleaseEscrowForConfirm validates the confirmation and releases the escrowed
// amount from the paying party's wallet in one transaction. The order stays
// `paid` until the counter-credit has succeeded.
func (r *OrderRepository) ReleaseEscrowForConfirm(ctx context.Context, side entity.OfferSide, orderID, actorID, escrowWalletID uint64, requestID string) (*entity.Order, error) {
	var order *entity.Order
	err := withTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		var err error
		order, err = getOrderForUpdateTx(ctx, tx, side, orderID)
		if err != nil {
			return err
		}
		if confirmerOf(side, order) != actorID {
			return ErrUnauthorizedParty
		}
		if order.Status != entity.OrderStatusPaid {
			return ErrInvalidStateTransition
		}

		// The reference carries the attempt id: a confirmation retried after a
		// compensated credit failure legitimately releases again.
		_, err = releaseFundsTx(ctx, tx, LedgerMutation{
			WalletID:  escrowWalletID,
			Amount:    order.AmountRequested,
			Category:  entity.TransactionCategoryTrade,
			RequestID: requestID,
			Reference: fmt.Sprintf("order-release:%s:%s", order.Reference, requestID),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// MarkCompleted transitions paid -> completed after the credit leg succeeded.
func (r *OrderRepository) MarkCompleted(ctx context.Context, side entity.OfferSide, orderID uint64) (*entity.Order, error) {
	var order *entity.Order
	err := withTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		var err error
		order, err = getOrderForUpdateTx(ctx, tx, side, orderID)
		if err != nil {
			return err
		}
		if order.Status != entity.OrderStatusPaid {
			return ErrInvalidStateTransition
		}
		order.Status = entity.OrderStatusCompleted
		return updateOrderStatusTx(ctx, tx, side, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CancelOrder transitions pending -> cancelled and restores the offer's
// inventory in one transaction. On the withdraw side the counterparty's
// per-order escrow is refunded (not released) back to spendable balance; on
// the deposit side the merchant's escrow stays locked, since it still backs
// the restored inventory. Either party may cancel while the order is pending.
func (r *OrderRepository) CancelOrder(ctx context.Context, side entity.OfferSide, orderID, actorID, escrowWalletID uint64, requestID string) (*entity.Order, error) {
	var order *entity.Order
	err := withTransaction(ctx, r.DB, func(tx *sqlx.Tx) error {
		var err error
		order, err = getOrderForUpdateTx(ctx, tx, side, orderID)
		if err != nil {
			return err
		}
		if actorID != order.MerchantID && actorID != order.CounterpartyID {
			return ErrUnauthorizedParty
		}
		if order.Status != entity.OrderStatusPending {
			return ErrInvalidStateTransition
		}

		if side == entity.OfferSideWithdraw {
			if _, err := refundFundsTx(ctx, tx, LedgerMutation{
				WalletID:  escrowWalletID,
				Amount:    order.AmountRequested,
				Category:  entity.TransactionCategoryTrade,
				RequestID: requestID,
				Reference: fmt.Sprintf("order-cancel:%s", order.Reference),
			}); err != nil {
				return err
			}
		}

		offer, err := getOfferForUpdateTx(ctx, tx, side, order.OfferID)
		if err != nil {
			return err
		}
		if err := restoreInventoryTx(ctx, tx, side, offer, order.AmountRequested); err != nil {
			return err
		}

		order.Status = entity.OrderStatusCancelled
		return updateOrderStatusTx(ctx, tx, side, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func getOrderForUpdateTx(ctx context.Context, tx *sqlx.Tx, side entity.OfferSide, orderID uint64) (*entity.Order, error) {
	var order entity.Order
	query := `SELECT ` + orderColumns + ` FROM ` + orderTable(side) + ` WHERE id = ? FOR UPDATE`
	if err := tx.GetContext(ctx, &order, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func updateOrderStatusTx(ctx context.Context, tx *sqlx.Tx, side entity.OfferSide, order *entity.Order) error {
	order.UpdatedAt = time.Now().UTC()
	_, err := tx.ExecContext(ctx,
		`UPDATE `+orderTable(side)+` SET status = ?, updated_at = ? WHERE id = ?`,
		order.Status, order.UpdatedAt, order.ID)
	return err
}
