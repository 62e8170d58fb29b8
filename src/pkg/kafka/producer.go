package kafka

import (
	"fmt"
	"strings"

	"ledger-service/src/pkg/log"

	"github.com/IBM/sarama"
)

type syncProducer struct {
	producer sarama.SyncProducer
	log      log.Log
}

// NewProducer creates a sarama sync producer from the shared kafka config.
func NewProducer(kc KafkaConfig, logger log.Log) (Producer, error) {
	brokers := strings.Split(kc.Address, ",")
	if len(brokers) == 0 || brokers[0] == "" {
		return nil, fmt.Errorf("kafka brokers required")
	}

	producer, err := sarama.NewSyncProducer(brokers, kc.GetSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &syncProducer{producer: producer, log: logger}, nil
}

func (p *syncProducer) Publish(topic, key string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.log.Error("kafka-producer", fmt.Sprintf("publish failed: %v", err), topic, key)
		return err
	}
	p.log.Info("kafka-producer", fmt.Sprintf("published partition=%d offset=%d", partition, offset), topic, key)
	return nil
}

func (p *syncProducer) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
