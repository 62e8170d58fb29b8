package converter

import (
	"time"

	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"

	"github.com/google/uuid"
)

func OrderToResponse(order *entity.Order, side entity.OfferSide) *model.OrderResponse {
	return &model.OrderResponse{
		ID:              order.ID,
		OfferID:         order.OfferID,
		Side:            string(side),
		MerchantID:      order.MerchantID,
		CounterpartyID:  order.CounterpartyID,
		Currency:        order.Currency,
		AmountRequested: order.AmountRequested,
		TotalPrice:      order.TotalPrice,
		Reference:       order.Reference,
		Status:          order.Status,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

func OrderToEvent(order *entity.Order, side entity.OfferSide) *model.OrderEvent {
	return &model.OrderEvent{
		EventID:         uuid.NewString(),
		OrderID:         order.ID,
		Side:            string(side),
		MerchantID:      order.MerchantID,
		CounterpartyID:  order.CounterpartyID,
		Currency:        order.Currency,
		AmountRequested: order.AmountRequested,
		Status:          order.Status,
		OccurredAt:      time.Now().UTC(),
	}
}
