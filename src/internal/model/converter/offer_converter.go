package converter

import (
	"ledger-service/src/internal/entity"
	"ledger-service/src/internal/model"
)

func OfferToResponse(offer *entity.Offer, side entity.OfferSide) *model.OfferResponse {
	return &model.OfferResponse{
		ID:              offer.ID,
		MerchantID:      offer.MerchantID,
		Side:            string(side),
		Currency:        offer.Currency,
		AmountAvailable: offer.AmountAvailable,
		MinAmount:       offer.MinAmount,
		MaxAmount:       offer.MaxAmount,
		UnitPrice:       offer.UnitPrice,
		IsActive:        offer.IsActive,
		CreatedAt:       offer.CreatedAt,
	}
}
