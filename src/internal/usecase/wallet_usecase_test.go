package usecase

import (
	"context"
	"testing"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWalletUseCaseUnderTest(wallets ...*entity.Wallet) (*WalletUseCase, *fakeWalletStore, *fakeTransactionSender) {
	store := newFakeWalletStore(wallets...)
	sender := &fakeTransactionSender{}
	uc := NewWalletUseCase(testLogger, validator.New(), store, sender)
	return uc, store, sender
}

func TestGetBalance(t *testing.T) {
	uc, _, _ := newWalletUseCaseUnderTest(
		&entity.Wallet{ID: 1, UserID: 7, Currency: "IDR", Balance: dec("120.5"), LockedBalance: dec("10")},
	)

	result := uc.GetBalance(context.Background(), &model.GetBalanceRequest{UserID: 7, Currency: "IDR"})
	require.NoError(t, result.Error)

	response := result.Data.(*model.WalletResponse)
	assert.True(t, response.Balance.Equal(dec("120.5")))
	assert.True(t, response.LockedBalance.Equal(dec("10")))
}

func TestGetBalanceUnknownWallet(t *testing.T) {
	uc, _, _ := newWalletUseCaseUnderTest()

	result := uc.GetBalance(context.Background(), &model.GetBalanceRequest{UserID: 7, Currency: "IDR"})
	require.Error(t, result.Error)
	assert.Equal(t, 404, errorCode(t, result.Error))
}

func TestGetBalanceValidation(t *testing.T) {
	uc, _, _ := newWalletUseCaseUnderTest()

	result := uc.GetBalance(context.Background(), &model.GetBalanceRequest{UserID: 7, Currency: "rupiah"})
	require.Error(t, result.Error)
	assert.Equal(t, 400, errorCode(t, result.Error))
}

func TestCreditIsIdempotentPerReference(t *testing.T) {
	uc, store, sender := newWalletUseCaseUnderTest(
		&entity.Wallet{ID: 1, UserID: 7, Currency: "IDR"},
	)

	request := &model.LedgerOpRequest{
		UserID:    7,
		Currency:  "IDR",
		Amount:    dec("250"),
		Category:  entity.TransactionCategoryDeposit,
		Reference: "topup-0001",
	}

	first := uc.Credit(context.Background(), request)
	require.NoError(t, first.Error)
	second := uc.Credit(context.Background(), request)
	require.NoError(t, second.Error)

	wallet := store.wallets[1]
	assert.True(t, wallet.Balance.Equal(dec("250")), "same reference must credit only once")
	assert.Len(t, sender.events, 1, "only the applying credit publishes an event")
}

func TestLockThenRefundRoundTrip(t *testing.T) {
	uc, store, _ := newWalletUseCaseUnderTest(
		&entity.Wallet{ID: 1, UserID: 7, Currency: "IDR", Balance: dec("100")},
	)

	locked := uc.Lock(context.Background(), &model.LedgerOpRequest{
		UserID: 7, Currency: "IDR", Amount: dec("40"),
		Category: entity.TransactionCategoryTrade, Reference: "hold-1",
	})
	require.NoError(t, locked.Error)

	wallet := store.wallets[1]
	assert.True(t, wallet.Balance.Equal(dec("60")))
	assert.True(t, wallet.LockedBalance.Equal(dec("40")))

	refunded := uc.Refund(context.Background(), &model.LedgerOpRequest{
		UserID: 7, Currency: "IDR", Amount: dec("40"),
		Category: entity.TransactionCategoryTrade, Reference: "hold-1-refund",
	})
	require.NoError(t, refunded.Error)
	assert.True(t, wallet.Balance.Equal(dec("100")))
	assert.True(t, wallet.LockedBalance.IsZero())
}

func TestDebitInsufficientFunds(t *testing.T) {
	uc, _, _ := newWalletUseCaseUnderTest(
		&entity.Wallet{ID: 1, UserID: 7, Currency: "IDR", Balance: dec("10")},
	)

	result := uc.Debit(context.Background(), &model.LedgerOpRequest{
		UserID: 7, Currency: "IDR", Amount: dec("25"),
		Category: entity.TransactionCategoryBill, Reference: "bill-9",
	})
	require.Error(t, result.Error)
	assert.Equal(t, 422, errorCode(t, result.Error))
}

func TestReleaseRequiresEscrow(t *testing.T) {
	uc, _, _ := newWalletUseCaseUnderTest(
		&entity.Wallet{ID: 1, UserID: 7, Currency: "IDR", Balance: dec("100")},
	)

	result := uc.Release(context.Background(), &model.LedgerOpRequest{
		UserID: 7, Currency: "IDR", Amount: dec("5"),
		Category: entity.TransactionCategoryTrade, Reference: "rel-1",
	})
	require.Error(t, result.Error)
	assert.Equal(t, 422, errorCode(t, result.Error))
}

func TestListTransactions(t *testing.T) {
	uc, _, _ := newWalletUseCaseUnderTest(
		&entity.Wallet{ID: 1, UserID: 7, Currency: "IDR"},
	)

	_ = uc.Credit(context.Background(), &model.LedgerOpRequest{
		UserID: 7, Currency: "IDR", Amount: dec("10"),
		Category: entity.TransactionCategoryDeposit, Reference: "t-1",
	})
	_ = uc.Credit(context.Background(), &model.LedgerOpRequest{
		UserID: 7, Currency: "IDR", Amount: dec("20"),
		Category: entity.TransactionCategoryDeposit, Reference: "t-2",
	})

	result := uc.ListTransactions(context.Background(), &model.ListTransactionsRequest{UserID: 7, Currency: "IDR"})
	require.NoError(t, result.Error)
	assert.Len(t, result.Data.([]*model.TransactionResponse), 2)
}
