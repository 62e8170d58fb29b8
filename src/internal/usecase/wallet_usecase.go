package usecase

import (
	"context"
	"fmt"

	"ledger-service/src/internal/model"
	"ledger-service/src/internal/model/converter"
	"ledger-service/src/internal/repository"
	httpError "ledger-service/src/pkg/http-error"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type WalletUseCase struct {
	Log                 log.Log
	Validate            *validator.Validate
	Wallets             WalletStore
	TransactionProducer TransactionSender
}

func NewWalletUseCase(
	logger log.Log,
	validate *validator.Validate,
	wallets WalletStore,
	transactionProducer TransactionSender,
) *WalletUseCase {
	return &WalletUseCase{
		Log:                 logger,
		Validate:            validate,
		Wallets:             wallets,
		TransactionProducer: transactionProducer,
	}
}

func (c *WalletUseCase) GetBalance(ctx context.Context, request *model.GetBalanceRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "GetBalance", utils.ConvertString(err))
		return result
	}

	wallet, err := c.Wallets.FindByUserIDAndCurrency(ctx, request.UserID, request.Currency)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("wallet-usecase", fmt.Sprintf("error find wallet: %v", err), "GetBalance", utils.ConvertString(request))
		return result
	}

	result.Data = converter.WalletToResponse(wallet)
	return result
}

func (c *WalletUseCase) ListTransactions(ctx context.Context, request *model.ListTransactionsRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "ListTransactions", utils.ConvertString(err))
		return result
	}

	wallet, err := c.Wallets.FindByUserIDAndCurrency(ctx, request.UserID, request.Currency)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("wallet-usecase", fmt.Sprintf("error find wallet: %v", err), "ListTransactions", utils.ConvertString(request))
		return result
	}

	transactions, err := c.Wallets.ListTransactions(ctx, wallet.ID, request.Page, request.Limit)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("wallet-usecase", fmt.Sprintf("error list transactions: %v", err), "ListTransactions", utils.ConvertString(request))
		return result
	}

	responses := make([]*model.TransactionResponse, 0, len(transactions))
	for i := range transactions {
		responses = append(responses, converter.TransactionToResponse(&transactions[i]))
	}
	result.Data = responses
	return result
}

// Lock moves funds from the user's spendable balance into escrow.
func (c *WalletUseCase) Lock(ctx context.Context, request *model.LedgerOpRequest) utils.Result {
	return c.applyLedgerOp(ctx, "Lock", request, c.Wallets.Lock)
}

// Release removes escrowed funds without returning them to spendable balance.
func (c *WalletUseCase) Release(ctx context.Context, request *model.LedgerOpRequest) utils.Result {
	return c.applyLedgerOp(ctx, "Release", request, c.Wallets.Release)
}

// Refund returns escrowed funds to the user's spendable balance.
func (c *WalletUseCase) Refund(ctx context.Context, request *model.LedgerOpRequest) utils.Result {
	return c.applyLedgerOp(ctx, "Refund", request, c.Wallets.Refund)
}

// Credit adds external money to the user's spendable balance. Idempotent per
// reference.
func (c *WalletUseCase) Credit(ctx context.Context, request *model.LedgerOpRequest) utils.Result {
	return c.applyLedgerOp(ctx, "Credit", request, c.Wallets.Credit)
}

// Debit removes external money from the user's spendable balance.
func (c *WalletUseCase) Debit(ctx context.Context, request *model.LedgerOpRequest) utils.Result {
	return c.applyLedgerOp(ctx, "Debit", request, c.Wallets.Debit)
}

func (c *WalletUseCase) applyLedgerOp(
	ctx context.Context,
	scope string,
	request *model.LedgerOpRequest,
	op func(context.Context, repository.LedgerMutation) (*repository.LedgerResult, error),
) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, scope, utils.ConvertString(err))
		return result
	}

	wallet, err := c.Wallets.FindByUserIDAndCurrency(ctx, request.UserID, request.Currency)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("wallet-usecase", fmt.Sprintf("error find wallet: %v", err), scope, utils.ConvertString(request))
		return result
	}

	opResult, err := op(ctx, repository.LedgerMutation{
		WalletID:  wallet.ID,
		Amount:    request.Amount,
		Category:  request.Category,
		RequestID: uuid.NewString(),
		Reference: request.Reference,
		Metadata:  request.Metadata,
	})
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("wallet-usecase", fmt.Sprintf("ledger operation failed: %v", err), scope, utils.ConvertString(request))
		return result
	}

	if opResult.Transaction != nil {
		event := converter.TransactionToEvent(opResult.Wallet, opResult.Transaction)
		if err := c.TransactionProducer.Send(event); err != nil {
			c.Log.Error("wallet-usecase", fmt.Sprintf("failed publish transaction event: %v", err), scope, event.EventID)
		}
	}

	result.Data = converter.WalletToResponse(opResult.Wallet)
	return result
}
