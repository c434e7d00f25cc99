package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/events"
	"github.com/Astemirdum/lending-service/pkg/circuit_breaker"
	"github.com/Astemirdum/lending-service/pkg/kafka"
)

func newBreaker() circuit_breaker.CircuitBreaker {
	return circuit_breaker.New(circuit_breaker.Config{
		RecordLength:     2,
		Timeout:          time.Minute,
		Percentile:       1,
		RecoveryRequests: 1,
	})
}

func TestKafkaPublisher_Publish(t *testing.T) {
	t.Parallel()
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	ev := kafka.NewEvent(kafka.EventLoanOpened, 7)
	ev.LoanID = 11

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		require.Equal(t, kafka.LendingTopic, msg.Topic)
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		require.Equal(t, "7", string(key))

		val, err := msg.Value.Encode()
		require.NoError(t, err)
		var got kafka.Event
		require.NoError(t, json.Unmarshal(val, &got))
		require.Equal(t, ev.ID, got.ID)
		require.Equal(t, int64(11), got.LoanID)
		return nil
	})

	pub := events.NewKafkaPublisher(producer, newBreaker(), zap.NewExample())
	require.NoError(t, pub.Publish(context.Background(), ev))
	require.NoError(t, producer.Close())
}

func TestKafkaPublisher_BreakerOpens(t *testing.T) {
	t.Parallel()
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	cb := newBreaker()
	pub := events.NewKafkaPublisher(producer, cb, zap.NewExample())
	ev := kafka.NewEvent(kafka.EventFinePaid, 1)

	require.ErrorIs(t, pub.Publish(context.Background(), ev), sarama.ErrOutOfBrokers)
	require.ErrorIs(t, pub.Publish(context.Background(), ev), sarama.ErrOutOfBrokers)
	require.Equal(t, circuit_breaker.Open, cb.State())
	require.ErrorIs(t, pub.Publish(context.Background(), ev), circuit_breaker.ErrOpenCB)
	require.NoError(t, producer.Close())
}

func TestRecorder(t *testing.T) {
	t.Parallel()
	var r events.Recorder
	require.NoError(t, events.Nop().Publish(context.Background(), kafka.NewEvent(kafka.EventLoanClosed, 1)))
	require.NoError(t, r.Publish(context.Background(), kafka.NewEvent(kafka.EventLoanClosed, 1)))
	require.Equal(t, []kafka.EventType{kafka.EventLoanClosed}, r.Types())
}
