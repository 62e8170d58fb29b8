package usecase

import (
	"context"
	"fmt"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"
	"ledger-service/src/internal/model/converter"
	"ledger-service/src/internal/repository"
	httpError "ledger-service/src/pkg/http-error"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// escrowStrategy answers whose wallet holds an order's escrow and who is paid
// out on confirmation. The deposit and withdraw sides are mirror images: the
// escrow owner confirms, the other party receives the credit.
type escrowStrategy interface {
	Side() entity.OfferSide
	EscrowOwner(order *entity.Order) uint64
	Payee(order *entity.Order) uint64
}

type depositEscrow struct{}

func (depositEscrow) Side() entity.OfferSide             { return entity.OfferSideDeposit }
func (depositEscrow) EscrowOwner(o *entity.Order) uint64 { return o.MerchantID }
func (depositEscrow) Payee(o *entity.Order) uint64       { return o.CounterpartyID }

type withdrawEscrow struct{}

func (withdrawEscrow) Side() entity.OfferSide             { return entity.OfferSideWithdraw }
func (withdrawEscrow) EscrowOwner(o *entity.Order) uint64 { return o.CounterpartyID }
func (withdrawEscrow) Payee(o *entity.Order) uint64       { return o.MerchantID }

func strategyFor(side entity.OfferSide) escrowStrategy {
	if side == entity.OfferSideWithdraw {
		return withdrawEscrow{}
	}
	return depositEscrow{}
}

type OrderUseCase struct {
	Log           log.Log
	Validate      *validator.Validate
	Orders        OrderStore
	Offers        OfferStore
	Wallets       WalletStore
	OrderProducer OrderSender
}

func NewOrderUseCase(
	logger log.Log,
	validate *validator.Validate,
	orders OrderStore,
	offers OfferStore,
	wallets WalletStore,
	orderProducer OrderSender,
) *OrderUseCase {
	return &OrderUseCase{
		Log:           logger,
		Validate:      validate,
		Orders:        orders,
		Offers:        offers,
		Wallets:       wallets,
		OrderProducer: orderProducer,
	}
}

// Create admits a trade against an offer. On the withdraw side the requesting
// counterparty's funds are locked at creation time; on the deposit side the
// merchant's escrow already backs the offer.
func (c *OrderUseCase) Create(ctx context.Context, request *model.CreateOrderRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("order-usecase", errObj.Message, "Create", utils.ConvertString(err))
		return result
	}
	if request.Amount.LessThanOrEqual(decimal.Zero) {
		errObj := httpError.NewBadRequest()
		errObj.Message = "amount must be positive"
		result.Error = errObj
		c.Log.Error("order-usecase", errObj.Message, "Create", utils.ConvertString(request))
		return result
	}

	side := entity.OfferSide(request.Side)
	offer, err := c.Offers.FindByID(ctx, side, request.OfferID)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("order-usecase", fmt.Sprintf("error find offer: %v", err), "Create", utils.ConvertString(request))
		return result
	}

	wallet, err := c.Wallets.FindByUserIDAndCurrency(ctx, request.UserID, offer.Currency)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("order-usecase", fmt.Sprintf("error find counterparty wallet: %v", err), "Create", utils.ConvertString(request))
		return result
	}

	order := &entity.Order{
		OfferID:         request.OfferID,
		CounterpartyID:  request.UserID,
		AmountRequested: request.Amount,
		Reference:       uuid.NewString(),
	}
	if err := c.Orders.CreateOrder(ctx, side, order, wallet.ID, order.Reference); err != nil {
		result.Error = domainError(err)
		c.Log.Error("order-usecase", fmt.Sprintf("error create order: %v", err), "Create", utils.ConvertString(request))
		return result
	}

	c.publishOrderEvent(order, side, "Create")
	result.Data = converter.OrderToResponse(order, side)
	return result
}

// MarkPaid records the off-platform payment assertion by the paying party.
func (c *OrderUseCase) MarkPaid(ctx context.Context, request *model.OrderActionRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("order-usecase", errObj.Message, "MarkPaid", utils.ConvertString(err))
		return result
	}

	side := entity.OfferSide(request.Side)
	order, err := c.Orders.MarkPaid(ctx, side, request.OrderID, request.UserID)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("order-usecase", fmt.Sprintf("error mark paid: %v", err), "MarkPaid", utils.ConvertString(request))
		return result
	}

	c.publishOrderEvent(order, side, "MarkPaid")
	result.Data = converter.OrderToResponse(order, side)
	return result
}

// Confirm settles a paid order: release the escrow, credit the payee, then
// complete the order. If the credit fails after the release committed, the
// escrow is restored and the order stays paid so confirmation can be retried.
func (c *OrderUseCase) Confirm(ctx context.Context, request *model.OrderActionRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("order-usecase", errObj.Message, "Confirm", utils.ConvertString(err))
		return result
	}

	side := entity.OfferSide(request.Side)
	strategy := strategyFor(side)

	order, err := c.Orders.FindByID(ctx, side, request.OrderID)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("order-usecase", fmt.Sprintf("error find order: %v", err), "Confirm", utils.ConvertString(request))
		return result
	}

	escrowWallet, err := c.Wallets.FindByUserIDAndCurrency(ctx, strategy.EscrowOwner(order), order.Currency)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("order-usecase", fmt.Sprintf("error find escrow wallet: %v", err), "Confirm", utils.ConvertString(request))
		return result
	}
	payeeWallet, err := c.Wallets.FindByUserIDAndCurrency(ctx, strategy.Payee(order), order.Currency)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("order-usecase", fmt.Sprintf("error find payee wallet: %v", err), "Confirm", utils.ConvertString(request))
		return result
	}

	requestID := uuid.NewString()
	order, err = c.Orders.ReleaseEscrowForConfirm(ctx, side, request.OrderID, request.UserID, escrowWallet.ID, requestID)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("order-usecase", fmt.Sprintf("error release escrow: %v", err), "Confirm", utils.ConvertString(request))
		return result
	}

	creditResult, err := c.Wallets.Credit(ctx, repository.LedgerMutation{
		WalletID:  payeeWallet.ID,
		Amount:    order.AmountRequested,
		Category:  entity.TransactionCategoryTrade,
		RequestID: requestID,
		Reference: fmt.Sprintf("order-credit:%s", order.Reference),
	})
	if err != nil {
		// The released amount must not evaporate: put it back into the
		// owner's escrow and leave the order paid for a later retry.
		if _, rerr := c.Wallets.RestoreEscrow(ctx, repository.LedgerMutation{
			WalletID:  escrowWallet.ID,
			Amount:    order.AmountRequested,
			Category:  entity.TransactionCategoryTrade,
			RequestID: requestID,
			Reference: fmt.Sprintf("order-compensate:%s:%s", order.Reference, requestID),
		}); rerr != nil {
			c.Log.Error("order-usecase", fmt.Sprintf("CRITICAL: escrow restore failed after credit failure: %v", rerr), "Confirm", order.Reference)
		}
		errObj := httpError.NewInternalServerError()
		errObj.Message = "settlement failed, order remains paid and can be confirmed again"
		result.Error = errObj
		c.Log.Error("order-usecase", fmt.Sprintf("error credit payee: %v", err), "Confirm", utils.ConvertString(request))
		return result
	}
	if creditResult.AlreadyProcessed {
		// A previous attempt already released and credited but never reached
		// completion, so the release above took the same escrow a second time.
		// Put it back before completing, otherwise the funds vanish.
		if _, rerr := c.Wallets.RestoreEscrow(ctx, repository.LedgerMutation{
			WalletID:  escrowWallet.ID,
			Amount:    order.AmountRequested,
			Category:  entity.TransactionCategoryTrade,
			RequestID: requestID,
			Reference: fmt.Sprintf("order-compensate:%s:%s", order.Reference, requestID),
		}); rerr != nil {
			c.Log.Error("order-usecase", fmt.Sprintf("CRITICAL: escrow restore failed after duplicate release: %v", rerr), "Confirm", order.Reference)
			errObj := httpError.NewInternalServerError()
			errObj.Message = "settlement failed, order remains paid and can be confirmed again"
			result.Error = errObj
			return result
		}
		c.Log.Warn("order-usecase", "credit already applied for this order, completing", "Confirm", order.Reference)
	}

	order, err = c.Orders.MarkCompleted(ctx, side, order.ID)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("order-usecase", fmt.Sprintf("error mark completed: %v", err), "Confirm", utils.ConvertString(request))
		return result
	}

	c.publishOrderEvent(order, side, "Confirm")
	result.Data = converter.OrderToResponse(order, side)
	return result
}

// Cancel aborts a pending order, refunding withdraw-side escrow and restoring
// the offer's inventory.
func (c *OrderUseCase) Cancel(ctx context.Context, request *model.OrderActionRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("order-usecase", errObj.Message, "Cancel", utils.ConvertString(err))
		return result
	}

	side := entity.OfferSide(request.Side)
	strategy := strategyFor(side)

	order, err := c.Orders.FindByID(ctx, side, request.OrderID)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("order-usecase", fmt.Sprintf("error find order: %v", err), "Cancel", utils.ConvertString(request))
		return result
	}

	escrowWallet, err := c.Wallets.FindByUserIDAndCurrency(ctx, strategy.EscrowOwner(order), order.Currency)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("order-usecase", fmt.Sprintf("error find escrow wallet: %v", err), "Cancel", utils.ConvertString(request))
		return result
	}

	order, err = c.Orders.CancelOrder(ctx, side, request.OrderID, request.UserID, escrowWallet.ID, uuid.NewString())
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("order-usecase", fmt.Sprintf("error cancel order: %v", err), "Cancel", utils.ConvertString(request))
		return result
	}

	c.publishOrderEvent(order, side, "Cancel")
	result.Data = converter.OrderToResponse(order, side)
	return result
}

func (c *OrderUseCase) Get(ctx context.Context, request *model.OrderActionRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("order-usecase", errObj.Message, "Get", utils.ConvertString(err))
		return result
	}

	side := entity.OfferSide(request.Side)
	order, err := c.Orders.FindByID(ctx, side, request.OrderID)
	if err != nil {
		result.Error = domainError(err)
		c.Log.Error("order-usecase", fmt.Sprintf("error find order: %v", err), "Get", utils.ConvertString(request))
		return result
	}
	if request.UserID != order.MerchantID && request.UserID != order.CounterpartyID {
		result.Error = domainError(repository.ErrUnauthorizedParty)
		return result
	}

	result.Data = converter.OrderToResponse(order, side)
	return result
}

func (c *OrderUseCase) publishOrderEvent(order *entity.Order, side entity.OfferSide, scope string) {
	event := converter.OrderToEvent(order, side)
	if err := c.OrderProducer.Send(event); err != nil {
		c.Log.Error("order-usecase", fmt.Sprintf("failed publish order event: %v", err), scope, event.EventID)
	}
}
