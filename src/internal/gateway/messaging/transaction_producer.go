package messaging

import (
	"ledger-service/src/internal/model"
	"ledger-service/src/pkg/kafka"
	"ledger-service/src/pkg/log"
)

type TransactionProducer struct {
	Producer[*model.TransactionEvent]
}

func NewTransactionProducer(producer kafka.Producer, log log.Log) *TransactionProducer {
	return &TransactionProducer{
		Producer[*model.TransactionEvent]{
			Producer: producer,
			Topic:    "wallet-transaction-committed",
			Log:      log,
		},
	}
}
