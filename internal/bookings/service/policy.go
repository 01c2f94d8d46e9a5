package service

import (
	bookingserrors "hotelbook/internal/bookings/errors"
	apperrors "hotelbook/pkg/errors"
	"hotelbook/pkg/model"
)

func requireIdentity(identity model.Identity) error {
	if !identity.Valid() {
		return apperrors.Unauthorized("Authentication required")
	}
	return nil
}

// canView is the list visibility rule applied to a single booking.
func canView(identity model.Identity, booking *model.Booking, hotel *model.Hotel) bool {
	switch identity.Role {
	case model.RoleAdmin:
		return true
	case model.RoleHotelManager:
		return hotel != nil && hotel.ManagerUserID == identity.UserID
	case model.RoleUser:
		return booking.UserID == identity.UserID
	default:
		return false
	}
}

// authorizeMutation decides whether identity may apply patch to booking.
// Users may only move the dates of their own bookings; status changes need a
// manager of the hotel or an admin.
func authorizeMutation(identity model.Identity, booking *model.Booking, hotel *model.Hotel, patch model.BookingPatch) error {
	switch identity.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleHotelManager:
		if hotel != nil && hotel.ManagerUserID == identity.UserID {
			return nil
		}
		return bookingserrors.AccessDenied("Hotel managers can only modify bookings of hotels they manage")
	case model.RoleUser:
		if booking.UserID != identity.UserID {
			return bookingserrors.AccessDenied("Users can only modify their own bookings")
		}
		if patch.Status != nil {
			return bookingserrors.AccessDenied("Users cannot change booking status")
		}
		return nil
	default:
		return bookingserrors.AccessDenied("Unknown role")
	}
}

// authorizeCancel applies the update rule for a cancellation. Users may cancel
// their own bookings even though they cannot set other statuses.
func authorizeCancel(identity model.Identity, booking *model.Booking, hotel *model.Hotel) error {
	return authorizeMutation(identity, booking, hotel, model.BookingPatch{})
}

// authorizeHotelUpdate lets admins edit any hotel and managers their own.
func authorizeHotelUpdate(identity model.Identity, hotel *model.Hotel) error {
	switch identity.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleHotelManager:
		if hotel.ManagerUserID == identity.UserID {
			return nil
		}
		return bookingserrors.AccessDenied("Hotel managers can only update hotels they manage")
	default:
		return bookingserrors.AccessDenied("Only hotel managers and admins can update hotels")
	}
}
