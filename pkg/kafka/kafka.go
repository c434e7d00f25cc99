package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Config struct {
	Addrs []string `yaml:"addrs" envconfig:"KAFKA_ADDRS"`
}

// Enabled reports whether any broker is configured.
func (c Config) Enabled() bool {
	return len(c.Addrs) > 0
}

const (
	LendingTopic = "lending.events"

	lendingCacheConsumerGroup = "lending-cache"
)

// CacheConsumerGroup returns a group id unique to this process so every
// instance receives every event.
func CacheConsumerGroup() string {
	return lendingCacheConsumerGroup + "-" + uuid.NewString()
}

type EventType string

const (
	EventLoanOpened   EventType = "loan.opened"
	EventLoanClosed   EventType = "loan.closed"
	EventFineAssessed EventType = "fine.assessed"
	EventFinePaid     EventType = "fine.paid"
)

type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	UserID     int64     `json:"userId"`
	LoanID     int64     `json:"loanId,omitempty"`
	BookID     int64     `json:"bookId,omitempty"`
	FineID     int64     `json:"fineId,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewEvent(typ EventType, userID int64) Event {
	return Event{
		ID:         uuid.New(),
		Type:       typ,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Retry.Max = 3

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

func NewConsumer(cfg Config, group string) (sarama.ConsumerGroup, error) {
	defaultCfg := sarama.NewConfig()
	defaultCfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	defaultCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}

	return sarama.NewConsumerGroup(cfg.Addrs, group, defaultCfg)
}

// Consume blocks until ctx is done, rejoining the group after every rebalance.
func Consume(ctx context.Context, group sarama.ConsumerGroup, handler sarama.ConsumerGroupHandler, topics ...string) error {
	defer group.Close()
	for {
		if err := group.Consume(ctx, topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return errors.Wrap(err, "consumer group")
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
