package kafka

import (
	"context"
	"testing"

	kafka_config "hotelbook/pkg/kafka/config"
	"hotelbook/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *kafka_config.Config {
	return &kafka_config.Config{
		Brokers:              []string{"localhost:9092"},
		ProducerMaxAttempts:  1,
		ProducerBatchTimeout: 1,
		ProducerRequireAcks:  -1,
		ProducerCompression:  "none",
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Service: "test"})
}

func TestNewProducer_Validation(t *testing.T) {
	_, err := NewProducer(nil, "topic", testLogger())
	assert.Error(t, err)

	_, err = NewProducer(&kafka_config.Config{}, "topic", testLogger())
	assert.Error(t, err)

	_, err = NewProducer(testConfig(), "", testLogger())
	assert.Error(t, err)
}

func TestProducer_MiddlewareChain(t *testing.T) {
	p, err := NewProducer(testConfig(), "bookings", testLogger())
	require.NoError(t, err)
	defer p.Close()

	var order []string
	var captured Message
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "outer")
		return next(ctx, msg)
	})
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "inner")
		captured = msg
		return nil
	})

	msg, err := NewMessage().WithKey("h1").WithValue(map[string]string{"a": "b"}).WithEventType("booking.created").Build()
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), msg))

	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, "bookings", captured.Topic)
	assert.Equal(t, "booking.created", captured.GetEventType())
	assert.NotEmpty(t, captured.GetEventID())
}

func TestProducer_RejectsInvalidMessages(t *testing.T) {
	p, err := NewProducer(testConfig(), "bookings", testLogger())
	require.NoError(t, err)

	assert.ErrorIs(t, p.Publish(context.Background(), Message{Value: []byte("x")}), ErrEmptyKey)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")}), ErrProducerClosed)
}

func TestMessageBuilder_EncodeError(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	assert.ErrorIs(t, err, ErrInvalidMessage)
}
