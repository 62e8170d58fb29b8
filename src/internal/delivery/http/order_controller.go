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

type OrderController struct {
	Log     log.Log
	UseCase *usecase.OrderUseCase
}

func NewOrderController(useCase *usecase.OrderUseCase, logger log.Log) *OrderController {
	return &OrderController{
		Log:     logger,
		UseCase: useCase,
	}
}

func (c *OrderController) Create(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.CreateOrderRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("OrderController.Create", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.UserID = auth.UserID

	result := c.UseCase.Create(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Create Order", fiber.StatusCreated, ctx)
}

func (c *OrderController) Get(ctx *fiber.Ctx) error {
	return c.action(ctx, "Get Order", c.UseCase.Get)
}

func (c *OrderController) MarkPaid(ctx *fiber.Ctx) error {
	return c.action(ctx, "Mark Order Paid", c.UseCase.MarkPaid)
}

func (c *OrderController) Confirm(ctx *fiber.Ctx) error {
	return c.action(ctx, "Confirm Order", c.UseCase.Confirm)
}

func (c *OrderController) Cancel(ctx *fiber.Ctx) error {
	return c.action(ctx, "Cancel Order", c.UseCase.Cancel)
}

func (c *OrderController) action(
	ctx *fiber.Ctx,
	message string,
	op func(ctx context.Context, request *model.OrderActionRequest) utils.Result,
) error {
	auth := middleware.GetUser(ctx)

	orderID, err := ctx.ParamsInt("id")
	if err != nil {
		return utils.ResponseError(err, ctx)
	}

	request := &model.OrderActionRequest{
		UserID:  auth.UserID,
		Side:    ctx.Params("side"),
		OrderID: uint64(orderID),
	}
	result := op(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, message, fiber.StatusOK, ctx)
}
