// Package events publishes booking lifecycle events.
package events

import (
	"context"
	"time"

	"hotelbook/pkg/model"
)

const (
	BookingCreated   = "booking.created"
	BookingUpdated   = "booking.updated"
	BookingCancelled = "booking.cancelled"

	schemaVersion = "1"
)

type BookingEvent struct {
	EventType    string              `json:"event_type"`
	BookingID    string              `json:"booking_id"`
	HotelID      string              `json:"hotel_id"`
	UserID       string              `json:"user_id"`
	Status       model.BookingStatus `json:"status"`
	CheckInDate  model.Date          `json:"check_in_date"`
	CheckOutDate model.Date          `json:"check_out_date"`
	ActorUserID  string              `json:"actor_user_id"`
	ActorRole    string              `json:"actor_role"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *model.Booking, actor model.Identity, at time.Time) BookingEvent {
	return BookingEvent{
		EventType:    eventType,
		BookingID:    b.ID,
		HotelID:      b.HotelID,
		UserID:       b.UserID,
		Status:       b.Status,
		CheckInDate:  b.CheckInDate,
		CheckOutDate: b.CheckOutDate,
		ActorUserID:  actor.UserID,
		ActorRole:    actor.Role.String(),
		OccurredAt:   at,
	}
}

type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BookingEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
