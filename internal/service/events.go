package service

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openshelf/loan-ledger/internal/model"
)

// Publisher emits loan lifecycle events to kafka. Publishing is
// best-effort: a failed send is logged and never fails the operation
// that produced it.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
}

func NewPublisher(producer sarama.SyncProducer, topic string, log *zap.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		log:      log.Named("events"),
	}
}

func (p *Publisher) Publish(typ model.LoanEventType, loan model.Loan) {
	if p == nil || p.producer == nil {
		return
	}
	ev := model.LoanEvent{
		EventUID: uuid.NewString(),
		Type:     typ,
		Loan:     loan,
		At:       time.Now().UTC(),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("marshal event", zap.Error(err))
		return
	}
	msg := &sarama.ProducerMessage{Topic: p.topic, Value: sarama.ByteEncoder(data)}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		p.log.Error("send event", zap.String("type", string(typ)), zap.Error(err))
	}
}
