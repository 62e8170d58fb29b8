package usecase

import (
	"context"
	"errors"
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/repository"
	httpError "ledger-service/src/pkg/http-error"

	"github.com/shopspring/decimal"
)

// Store interfaces over the repository layer. The concrete repositories
// satisfy them; tests substitute fakes.

type WalletStore interface {
	FindByUserIDAndCurrency(ctx context.Context, userID uint64, currency string) (*entity.Wallet, error)
	FindByID(ctx context.Context, walletID uint64) (*entity.Wallet, error)
	FindByChannelAccountNumber(ctx context.Context, accountNumber string) (*entity.Wallet, error)
	ListTransactions(ctx context.Context, walletID uint64, page, limit int) ([]entity.WalletTransaction, error)
	Lock(ctx context.Context, m repository.LedgerMutation) (*repository.LedgerResult, error)
	Release(ctx context.Context, m repository.LedgerMutation) (*repository.LedgerResult, error)
	Refund(ctx context.Context, m repository.LedgerMutation) (*repository.LedgerResult, error)
	Credit(ctx context.Context, m repository.LedgerMutation) (*repository.LedgerResult, error)
	Debit(ctx context.Context, m repository.LedgerMutation) (*repository.LedgerResult, error)
	RestoreEscrow(ctx context.Context, m repository.LedgerMutation) (*repository.LedgerResult, error)
}

type OfferStore interface {
	CreateOffer(ctx context.Context, side entity.OfferSide, offer *entity.Offer, merchantWalletID uint64, requestID string) error
	FindByID(ctx context.Context, side entity.OfferSide, offerID uint64) (*entity.Offer, error)
	ListActive(ctx context.Context, side entity.OfferSide, currency string, page, limit int) ([]entity.Offer, error)
	Deactivate(ctx context.Context, side entity.OfferSide, offerID, merchantID, merchantWalletID uint64, requestID string) (decimal.Decimal, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, side entity.OfferSide, order *entity.Order, counterpartyWalletID uint64, requestID string) error
	FindByID(ctx context.Context, side entity.OfferSide, orderID uint64) (*entity.Order, error)
	MarkPaid(ctx context.Context, side entity.OfferSide, orderID, actorID uint64) (*entity.Order, error)
	ReleaseEscrowForConfirm(ctx context.Context, side entity.OfferSide, orderID, actorID, escrowWalletID uint64, requestID string) (*entity.Order, error)
	MarkCompleted(ctx context.Context, side entity.OfferSide, orderID uint64) (*entity.Order, error)
	CancelOrder(ctx context.Context, side entity.OfferSide, orderID, actorID, escrowWalletID uint64, requestID string) (*entity.Order, error)
}

type DepositStore interface {
	FindByProviderReference(ctx context.Context, provider, providerReference string) (*entity.Deposit, error)
	Create(ctx context.Context, deposit *entity.Deposit) error
	UpdateStatus(ctx context.Context, depositID uint64, status string) error
}

type RetryStore interface {
	Create(ctx context.Context, task *entity.WebhookRetryTask) error
	FindByID(ctx context.Context, taskID uint64) (*entity.WebhookRetryTask, error)
	FindDue(ctx context.Context, limit int) ([]entity.WebhookRetryTask, error)
	Claim(ctx context.Context, taskID uint64) (*entity.WebhookRetryTask, error)
	UpdateAfterAttempt(ctx context.Context, taskID uint64, status string, nextAttemptAt time.Time, lastError string) error
}

type TransactionSender interface {
	Send(event *model.TransactionEvent) error
}

type OrderSender interface {
	Send(event *model.OrderEvent) error
}

// domainError maps repository sentinels onto HTTP error objects so every
// usecase reports the same way.
func domainError(err error) *httpError.CommonError {
	var errObj *httpError.CommonError
	switch {
	case errors.Is(err, repository.ErrWalletNotFound),
		errors.Is(err, repository.ErrOfferNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrDepositNotFound):
		errObj = httpError.NewNotFound()
	case errors.Is(err, repository.ErrInvalidAmount),
		errors.Is(err, repository.ErrAmountOutOfRange):
		errObj = httpError.NewBadRequest()
	case errors.Is(err, repository.ErrInsufficientFunds),
		errors.Is(err, repository.ErrInsufficientEscrow):
		errObj = httpError.NewUnprocessableEntity()
	case errors.Is(err, repository.ErrOfferInactive),
		errors.Is(err, repository.ErrOfferInventoryExhausted),
		errors.Is(err, repository.ErrSelfTrade),
		errors.Is(err, repository.ErrInvalidStateTransition):
		errObj = httpError.NewConflict()
	case errors.Is(err, repository.ErrUnauthorizedParty):
		errObj = httpError.NewForbidden()
	default:
		return httpError.NewInternalServerError()
	}
	errObj.Message = err.Error()
	return errObj
}
