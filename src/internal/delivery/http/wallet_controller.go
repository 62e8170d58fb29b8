package http

import (
	"context"

	"ledger-service/src/internal/delivery/http/middleware"
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/usecase"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletController struct {
	Log     log.Log
	UseCase *usecase.WalletUseCase
}

func NewWalletController(useCase *usecase.WalletUseCase, logger log.Log) *WalletController {
	return &WalletController{
		Log:     logger,
		UseCase: useCase,
	}
}

func (c *WalletController) GetBalance(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := &model.GetBalanceRequest{
		UserID:   auth.UserID,
		Currency: ctx.Query("currency"),
	}
	result := c.UseCase.GetBalance(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Get Balance", fiber.StatusOK, ctx)
}

func (c *WalletController) ListTransactions(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := &model.ListTransactionsRequest{
		UserID:   auth.UserID,
		Currency: ctx.Query("currency"),
		Page:     ctx.QueryInt("page", 1),
		Limit:    ctx.QueryInt("limit", 20),
	}
	result := c.UseCase.ListTransactions(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "List Transactions", fiber.StatusOK, ctx)
}

// Ledger primitive endpoints for operator adjustments (bonus payouts, bill
// charges, manual corrections). Regular trade flow never calls these.

func (c *WalletController) Lock(ctx *fiber.Ctx) error {
	return c.ledgerOp(ctx, "Lock Funds", c.UseCase.Lock)
}

func (c *WalletController) Release(ctx *fiber.Ctx) error {
	return c.ledgerOp(ctx, "Release Funds", c.UseCase.Release)
}

func (c *WalletController) Refund(ctx *fiber.Ctx) error {
	return c.ledgerOp(ctx, "Refund Funds", c.UseCase.Refund)
}

func (c *WalletController) Credit(ctx *fiber.Ctx) error {
	return c.ledgerOp(ctx, "Credit Funds", c.UseCase.Credit)
}

func (c *WalletController) Debit(ctx *fiber.Ctx) error {
	return c.ledgerOp(ctx, "Debit Funds", c.UseCase.Debit)
}

func (c *WalletController) ledgerOp(
	ctx *fiber.Ctx,
	message string,
	op func(ctx context.Context, request *model.LedgerOpRequest) utils.Result,
) error {
	request := new(model.LedgerOpRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("WalletController.ledgerOp", "Failed to parse request body", message, err.Error())
		return utils.ResponseError(err, ctx)
	}

	result := op(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, message, fiber.StatusOK, ctx)
}
