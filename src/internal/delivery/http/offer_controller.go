package http

import (
	"ledger-service/src/internal/delivery/http/middleware"
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/usecase"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type OfferController struct {
	Log     log.Log
	UseCase *usecase.OfferUseCase
}

func NewOfferController(useCase *usecase.OfferUseCase, logger log.Log) *OfferController {
	return &OfferController{
		Log:     logger,
		UseCase: useCase,
	}
}

func (c *OfferController) Create(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	request := new(model.CreateOfferRequest)
	if err := ctx.BodyParser(request); err != nil {
		c.Log.Error("OfferController.Create", "Failed to parse request body", "error", err.Error())
		return utils.ResponseError(err, ctx)
	}
	request.MerchantID = auth.UserID

	result := c.UseCase.Create(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Create Offer", fiber.StatusCreated, ctx)
}

func (c *OfferController) Get(ctx *fiber.Ctx) error {
	offerID, err := ctx.ParamsInt("id")
	if err != nil {
		return utils.ResponseError(err, ctx)
	}

	request := &model.GetOfferRequest{
		Side:    ctx.Params("side"),
		OfferID: uint64(offerID),
	}
	result := c.UseCase.Get(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Get Offer", fiber.StatusOK, ctx)
}

func (c *OfferController) ListActive(ctx *fiber.Ctx) error {
	request := &model.ListOffersRequest{
		Side:     ctx.Query("side"),
		Currency: ctx.Query("currency"),
		Page:     ctx.QueryInt("page", 1),
		Limit:    ctx.QueryInt("limit", 20),
	}
	result := c.UseCase.ListActive(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "List Offers", fiber.StatusOK, ctx)
}

func (c *OfferController) Deactivate(ctx *fiber.Ctx) error {
	auth := middleware.GetUser(ctx)

	offerID, err := ctx.ParamsInt("id")
	if err != nil {
		return utils.ResponseError(err, ctx)
	}

	request := &model.DeactivateOfferRequest{
		MerchantID: auth.UserID,
		Side:       ctx.Params("side"),
		OfferID:    uint64(offerID),
	}
	result := c.UseCase.Deactivate(ctx.Context(), request)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Deactivate Offer", fiber.StatusOK, ctx)
}
