package handler

import (
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/pkg/kafka"
)

type invalidateHistory func(userIDs ...int64)

// Consumer drops cached histories for members touched by lending events,
// including events produced by other instances.
type Consumer struct {
	invalidate invalidateHistory
	log        *zap.Logger
}

func NewConsumer(invalidate invalidateHistory, log *zap.Logger) *Consumer {
	return &Consumer{
		invalidate: invalidate,
		log:        log.Named("consumer"),
	}
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			var ev kafka.Event
			if err := json.Unmarshal(message.Value, &ev); err != nil {
				consumer.log.Error("json.Unmarshal", zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}
			if ev.UserID > 0 {
				consumer.invalidate(ev.UserID)
			}

			consumer.log.Debug("Message claimed:",
				zap.String("type", string(ev.Type)),
				zap.Int64("user", ev.UserID),
				zap.Time("timestamp", message.Timestamp),
				zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
