package usecase

import (
	"context"
	"fmt"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/model/converter"
	httpError "ledger-service/src/pkg/http-error"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OfferUseCase struct {
	Log      log.Log
	Validate *validator.Validate
	Offers   OfferStore
	Wallets  WalletStore
}

func NewOfferUseCase(
	logger log.Log,
	validate *validator.Validate,
	offers OfferStore,
	wallets WalletStore,
) *OfferUseCase {
	return &OfferUseCase{
		Log:      logger,
		Validate: validate,
		Offers:   offers,
		Wallets:  wallets,
	}
}

// Create puts a new offer on the book. Deposit-side offers lock the merchant's
// inventory into escrow in the same transaction as the insert.
func (c *OfferUseCase) Create(ctx context.Context, request *model.CreateOfferRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("offer-usecase", errObj.Message, "Create", utils.ConvertString(err))
		return result
	}
	if errObj := validateOfferBounds(request); errObj != nil {
		result.Error = errObj
		c.Log.Error("offer-usecase", errObj.Message, "Create", utils.ConvertString(request))
		return result
	}

	wallet, err := c.Wallets.FindByUserIDAndCurrency(ctx, request.MerchantID, request.Currency)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("offer-usecase", fmt.Sprintf("error find merchant wallet: %v", err), "Create", utils.ConvertString(request))
		return result
	}

	side := entity.OfferSide(request.Side)
	offer := &entity.Offer{
		MerchantID:      request.MerchantID,
		Currency:        request.Currency,
		AmountAvailable: request.Amount,
		MinAmount:       request.MinAmount,
		MaxAmount:       request.MaxAmount,
		UnitPrice:       request.UnitPrice,
	}
	if err := c.Offers.CreateOffer(ctx, side, offer, wallet.ID, uuid.NewString()); err != nil {
		result.Error = domainError(err)
		c.Log.Error("offer-usecase", fmt.Sprintf("error create offer: %v", err), "Create", utils.ConvertString(request))
		return result
	}

	result.Data = converter.OfferToResponse(offer, side)
	return result
}

func validateOfferBounds(request *model.CreateOfferRequest) *httpError.CommonError {
	switch {
	case request.Amount.LessThanOrEqual(decimal.Zero):
		errObj := httpError.NewBadRequest()
		errObj.Message = "amount must be positive"
		return errObj
	case request.UnitPrice.LessThanOrEqual(decimal.Zero):
		errObj := httpError.NewBadRequest()
		errObj.Message = "unit price must be positive"
		return errObj
	case request.MinAmount.LessThanOrEqual(decimal.Zero),
		request.MinAmount.GreaterThan(request.MaxAmount),
		request.MaxAmount.GreaterThan(request.Amount):
		errObj := httpError.NewBadRequest()
		errObj.Message = "offer bounds must satisfy 0 < minAmount <= maxAmount <= amount"
		return errObj
	}
	return nil
}

func (c *OfferUseCase) Get(ctx context.Context, request *model.GetOfferRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("offer-usecase", errObj.Message, "Get", utils.ConvertString(err))
		return result
	}

	side := entity.OfferSide(request.Side)
	offer, err := c.Offers.FindByID(ctx, side, request.OfferID)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("offer-usecase", fmt.Sprintf("error find offer: %v", err), "Get", utils.ConvertString(request))
		return result
	}

	result.Data = converter.OfferToResponse(offer, side)
	return result
}

func (c *OfferUseCase) ListActive(ctx context.Context, request *model.ListOffersRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("offer-usecase", errObj.Message, "ListActive", utils.ConvertString(err))
		return result
	}

	side := entity.OfferSide(request.Side)
	offers, err := c.Offers.ListActive(ctx, side, request.Currency, request.Page, request.Limit)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("offer-usecase", fmt.Sprintf("error list offers: %v", err), "ListActive", utils.ConvertString(request))
		return result
	}

	responses := make([]*model.OfferResponse, 0, len(offers))
	for i := range offers {
		responses = append(responses, converter.OfferToResponse(&offers[i], side))
	}
	result.Data = responses
	return result
}

// Deactivate pulls the merchant's offer off the book, refunding remaining
// deposit-side escrow.
func (c *OfferUseCase) Deactivate(ctx context.Context, request *model.DeactivateOfferRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("offer-usecase", errObj.Message, "Deactivate", utils.ConvertString(err))
		return result
	}

	side := entity.OfferSide(request.Side)
	offer, err := c.Offers.FindByID(ctx, side, request.OfferID)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("offer-usecase", fmt.Sprintf("error find offer: %v", err), "Deactivate", utils.ConvertString(request))
		return result
	}

	wallet, err := c.Wallets.FindByUserIDAndCurrency(ctx, request.MerchantID, offer.Currency)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("offer-usecase", fmt.Sprintf("error find merchant wallet: %v", err), "Deactivate", utils.ConvertString(request))
		return result
	}

	if _, err := c.Offers.Deactivate(ctx, side, request.OfferID, request.MerchantID, wallet.ID, uuid.NewString()); err != nil {
		result.Error = domainError(err)
		c.Log.Error("offer-usecase", fmt.Sprintf("error deactivate offer: %v", err), "Deactivate", utils.ConvertString(request))
		return result
	}

	offer, err = c.Offers.FindByID(ctx, side, request.OfferID)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("offer-usecase", fmt.Sprintf("error reload offer: %v", err), "Deactivate", utils.ConvertString(request))
		return result
	}

	result.Data = converter.OfferToResponse(offer, side)
	return result
}
