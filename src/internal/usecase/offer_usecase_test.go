package usecase

import (
	"context"
	"testing"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDepositOfferLocksInventory(t *testing.T) {
	w := newTradeWorld("1000", "500")

	offer := w.createOffer(t, "deposit", "600", "100", "600")
	assert.True(t, offer.IsActive)

	merchant := w.wallets.wallets[1]
	assert.True(t, merchant.Balance.Equal(dec("400")))
	assert.True(t, merchant.LockedBalance.Equal(dec("600")))
}

func TestCreateOfferInsufficientFunds(t *testing.T) {
	w := newTradeWorld("1000", "500")

	result := w.offerUC.Create(context.Background(), &model.CreateOfferRequest{
		MerchantID: merchantUserID,
		Side:       "deposit",
		Currency:   "IDR",
		Amount:     dec("1500"),
		MinAmount:  dec("100"),
		MaxAmount:  dec("1500"),
		UnitPrice:  dec("1"),
	})
	require.Error(t, result.Error)
	assert.Equal(t, 422, errorCode(t, result.Error))
}

func TestCreateOfferRejectsBadBounds(t *testing.T) {
	w := newTradeWorld("1000", "500")

	cases := []struct {
		name     string
		min, max string
	}{
		{"min above max", "500", "100"},
		{"max above inventory", "100", "2000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := w.offerUC.Create(context.Background(), &model.CreateOfferRequest{
				MerchantID: merchantUserID,
				Side:       "deposit",
				Currency:   "IDR",
				Amount:     dec("1000"),
				MinAmount:  dec(tc.min),
				MaxAmount:  dec(tc.max),
				UnitPrice:  dec("1"),
			})
			require.Error(t, result.Error)
			assert.Equal(t, 400, errorCode(t, result.Error))
		})
	}
}

func TestDeactivateDepositOfferRefundsRemainingEscrow(t *testing.T) {
	w := newTradeWorld("1000", "500")
	offer := w.createOffer(t, "deposit", "1000", "100", "1000")
	w.createOrder(t, "deposit", offer.ID, "300")

	result := w.offerUC.Deactivate(context.Background(), &model.DeactivateOfferRequest{
		MerchantID: merchantUserID,
		Side:       "deposit",
		OfferID:    offer.ID,
	})
	require.NoError(t, result.Error)

	merchant := w.wallets.wallets[1]
	// 700 unreserved inventory refunded; 300 stays escrowed for the open order.
	assert.True(t, merchant.Balance.Equal(dec("700")))
	assert.True(t, merchant.LockedBalance.Equal(dec("300")))

	stored, _ := w.offers.FindByID(context.Background(), entity.OfferSideDeposit, offer.ID)
	assert.False(t, stored.IsActive)
	assert.True(t, stored.AmountAvailable.IsZero())
}

func TestDeactivateByNonOwnerForbidden(t *testing.T) {
	w := newTradeWorld("1000", "500")
	offer := w.createOffer(t, "deposit", "1000", "100", "1000")

	result := w.offerUC.Deactivate(context.Background(), &model.DeactivateOfferRequest{
		MerchantID: counterpartyUserID,
		Side:       "deposit",
		OfferID:    offer.ID,
	})
	require.Error(t, result.Error)
	assert.Equal(t, 403, errorCode(t, result.Error))
}

func TestListActiveOffers(t *testing.T) {
	w := newTradeWorld("1000", "500")
	w.createOffer(t, "deposit", "400", "100", "400")
	w.createOffer(t, "deposit", "600", "100", "600")

	result := w.offerUC.ListActive(context.Background(), &model.ListOffersRequest{
		Side:     "deposit",
		Currency: "IDR",
	})
	require.NoError(t, result.Error)
	assert.Len(t, result.Data.([]*model.OfferResponse), 2)
}
