package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, time.March, 9), d)
	assert.Equal(t, "2025-03-09", d.String())

	_, err = ParseDate("09/03/2025")
	assert.Error(t, err)
}

func TestDate_JSON(t *testing.T) {
	b := Booking{CheckInDate: NewDate(2025, 1, 2), CheckOutDate: NewDate(2025, 1, 5)}
	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"check_in_date":"2025-01-02"`)

	var decoded Booking
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.CheckOutDate.Equal(b.CheckOutDate))

	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"2025-13-40"`), &d))
}

func TestDate_BSON(t *testing.T) {
	in := Booking{HotelID: "h1", CheckInDate: NewDate(2025, 6, 1), CheckOutDate: NewDate(2025, 6, 3)}
	raw, err := bson.Marshal(in)
	require.NoError(t, err)

	var out Booking
	require.NoError(t, bson.Unmarshal(raw, &out))
	assert.True(t, out.CheckInDate.Equal(in.CheckInDate))
	assert.True(t, out.CheckOutDate.Equal(in.CheckOutDate))
}

func TestOverlaps(t *testing.T) {
	d := func(day int) Date { return NewDate(2025, time.May, day) }

	tests := []struct {
		name     string
		a1, a2   Date
		b1, b2   Date
		expected bool
	}{
		{"identical", d(1), d(5), d(1), d(5), true},
		{"inner", d(1), d(10), d(3), d(4), true},
		{"partial left", d(3), d(6), d(1), d(4), true},
		{"back to back", d(1), d(5), d(5), d(8), false},
		{"adjacent before", d(5), d(8), d(1), d(5), false},
		{"disjoint", d(1), d(2), d(10), d(12), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Overlaps(tt.a1, tt.a2, tt.b1, tt.b2))
			assert.Equal(t, tt.expected, Overlaps(tt.b1, tt.b2, tt.a1, tt.a2))
		})
	}
}

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusConfirmed))
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusPending))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusPending))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusConfirmed))
}

func TestParseBookingStatus(t *testing.T) {
	s, ok := ParseBookingStatus(" confirmed ")
	assert.True(t, ok)
	assert.Equal(t, StatusConfirmed, s)

	_, ok = ParseBookingStatus("archived")
	assert.False(t, ok)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("HOTEL_MANAGER")
	require.NoError(t, err)
	assert.Equal(t, RoleHotelManager, r)
	assert.Equal(t, "hotel_manager", r.String())

	_, err = ParseRole("root")
	assert.Error(t, err)
	assert.False(t, Identity{UserID: "u1"}.Valid())
	assert.True(t, Identity{UserID: "u1", Role: RoleAdmin}.Valid())
}
