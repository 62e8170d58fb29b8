package messaging

import (
	"ledger-service/src/internal/model"
	"ledger-service/src/pkg/kafka"
	"ledger-service/src/pkg/log"
)

type OrderProducer struct {
	Producer[*model.OrderEvent]
}

func NewOrderProducer(producer kafka.Producer, log log.Log) *OrderProducer {
	return &OrderProducer{
		Producer[*model.OrderEvent]{
			Producer: producer,
			Topic:    "escrow-order-updated",
			Log:      log,
		},
	}
}
