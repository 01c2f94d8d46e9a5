package events

import (
	"context"

	"hotelbook/pkg/kafka"
)

// KafkaPublisher writes events keyed by hotel id so one hotel's events stay ordered.
type KafkaPublisher struct {
	producer *kafka.Producer
	source   string
}

func NewKafkaPublisher(producer *kafka.Producer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event BookingEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.HotelID).
		WithValue(event).
		WithEventType(event.EventType).
		WithSource(p.source).
		WithSchemaVersion(schemaVersion).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
