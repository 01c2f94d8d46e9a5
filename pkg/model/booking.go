package model

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "Pending"
	StatusConfirmed BookingStatus = "Confirmed"
	StatusCancelled BookingStatus = "Cancelled"
)

// ParseBookingStatus accepts the canonical names case-insensitively.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	for _, st := range []BookingStatus{StatusPending, StatusConfirmed, StatusCancelled} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

// CanTransitionTo reports whether a booking in status s may move to next.
// Cancelled is terminal and Confirmed never goes back to Pending.
// Re-applying the current status is allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled
	default:
		return false
	}
}

type Booking struct {
	ID           string        `json:"id" bson:"_id,omitempty"`
	UserID       string        `json:"user_id" bson:"user_id"`
	HotelID      string        `json:"hotel_id" bson:"hotel_id"`
	CheckInDate  Date          `json:"check_in_date" bson:"check_in_date"`
	CheckOutDate Date          `json:"check_out_date" bson:"check_out_date"`
	Status       BookingStatus `json:"status" bson:"status"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" bson:"updated_at"`
}

// IsActive reports whether the booking still occupies its dates.
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled
}

func (b *Booking) Overlaps(checkIn, checkOut Date) bool {
	return Overlaps(b.CheckInDate, b.CheckOutDate, checkIn, checkOut)
}

// BookingRequest is the create payload.
type BookingRequest struct {
	HotelID      string `json:"hotel_id" validate:"required,max=64"`
	CheckInDate  string `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate string `json:"check_out_date" validate:"required,datetime=2006-01-02"`
}

// BookingUpdate is the partial update payload. Absent fields stay unchanged.
type BookingUpdate struct {
	CheckInDate  *string `json:"check_in_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CheckOutDate *string `json:"check_out_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status       *string `json:"status,omitempty" validate:"omitempty,booking_status"`
}

// BookingPatch is a validated BookingUpdate.
type BookingPatch struct {
	CheckInDate  *Date
	CheckOutDate *Date
	Status       *BookingStatus
}

func (p BookingPatch) IsEmpty() bool {
	return p.CheckInDate == nil && p.CheckOutDate == nil && p.Status == nil
}

func (p BookingPatch) HasDates() bool {
	return p.CheckInDate != nil || p.CheckOutDate != nil
}
