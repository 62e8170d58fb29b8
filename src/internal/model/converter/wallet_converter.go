package converter

import (
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"

	"github.com/google/uuid"
)

func WalletToResponse(wallet *entity.Wallet) *model.WalletResponse {
	return &model.WalletResponse{
		ID:            wallet.ID,
		UserID:        wallet.UserID,
		Currency:      wallet.Currency,
		Balance:       wallet.Balance,
		LockedBalance: wallet.LockedBalance,
		UpdatedAt:     wallet.UpdatedAt,
	}
}

func TransactionToResponse(tx *entity.WalletTransaction) *model.TransactionResponse {
	return &model.TransactionResponse{
		ID:            tx.ID,
		Direction:     tx.Direction,
		Category:      tx.Category,
		Amount:        tx.Amount,
		BalanceBefore: tx.BalanceBefore,
		BalanceAfter:  tx.BalanceAfter,
		Status:        tx.Status,
		Reference:     tx.Reference,
		CreatedAt:     tx.CreatedAt,
	}
}

func TransactionToEvent(wallet *entity.Wallet, tx *entity.WalletTransaction) *model.TransactionEvent {
	return &model.TransactionEvent{
		EventID:   uuid.NewString(),
		WalletID:  wallet.ID,
		UserID:    wallet.UserID,
		Currency:  wallet.Currency,
		Direction: tx.Direction,
		Category:  tx.Category,
		Amount:    tx.Amount,
		Reference: tx.Reference,
		Status:    tx.Status,
		CreatedAt: time.Now().UTC(),
	}
}
