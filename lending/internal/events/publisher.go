package events

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/pkg/circuit_breaker"
	"github.com/Astemirdum/lending-service/pkg/kafka"
)

type Publisher interface {
	Publish(ctx context.Context, ev kafka.Event) error
}

type kafkaPublisher struct {
	producer sarama.SyncProducer
	cb       circuit_breaker.CircuitBreaker
	topic    string
	log      *zap.Logger
}

// NewKafkaPublisher sends events keyed by member id, so one member's events
// stay ordered within a partition.
func NewKafkaPublisher(producer sarama.SyncProducer, cb circuit_breaker.CircuitBreaker, log *zap.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		cb:       cb,
		topic:    kafka.LendingTopic,
		log:      log.Named("publisher"),
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, ev kafka.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "json.Marshal")
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(ev.UserID, 10)),
		Value: sarama.ByteEncoder(data),
	}
	err = p.cb.Call(func() error {
		_, _, err := p.producer.SendMessage(msg)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "publish %s", ev.Type)
	}
	p.log.Debug("event published", zap.String("type", string(ev.Type)), zap.Stringer("id", ev.ID))
	return nil
}

type nop struct{}

// Nop drops every event. Used when no brokers are configured.
func Nop() Publisher { return nop{} }

func (nop) Publish(context.Context, kafka.Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (r *Recorder) Publish(_ context.Context, ev kafka.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Events() []kafka.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]kafka.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Types() []kafka.EventType {
	evs := r.Events()
	out := make([]kafka.EventType, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}
