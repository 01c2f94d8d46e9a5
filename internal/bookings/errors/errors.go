package errors

import (
	"errors"
	"net/http"

	apperrors "hotelbook/pkg/errors"
)

var (
	ErrNotFound = errors.New("booking not found")

	ErrHotelNotFound = errors.New("hotel not found")

	ErrInvalidID = errors.New("invalid ID format")

	ErrInvalidDateRange = errors.New("check-in date must be before check-out date")

	ErrOverlapConflict = errors.New("booking dates overlap an existing booking")

	ErrAccessDenied = errors.New("access denied")

	ErrInvalidStatusTransition = errors.New("invalid booking status transition")

	ErrHotelBusy = errors.New("hotel is busy")
)

const (
	CodeHotelNotFound           = "HOTEL_NOT_FOUND"
	CodeBookingNotFound         = "BOOKING_NOT_FOUND"
	CodeInvalidDateRange        = "INVALID_DATE_RANGE"
	CodeOverlapConflict         = "OVERLAP_CONFLICT"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
)

func BookingNotFound(id string) *apperrors.AppError {
	return apperrors.NotFoundWithID("Booking", id).WithCode(CodeBookingNotFound).WithCause(ErrNotFound)
}

func HotelNotFound(id string) *apperrors.AppError {
	return apperrors.NotFoundWithID("Hotel", id).WithCode(CodeHotelNotFound).WithCause(ErrHotelNotFound)
}

func InvalidDateRange(checkIn, checkOut string) *apperrors.AppError {
	return apperrors.Wrap(ErrInvalidDateRange, CodeInvalidDateRange, "Check-in date must be before check-out date", http.StatusBadRequest).
		WithDetails(map[string]any{"check_in_date": checkIn, "check_out_date": checkOut})
}

// OverlapConflict reports the active booking that blocks the requested range.
func OverlapConflict(conflictingID, checkIn, checkOut string) *apperrors.AppError {
	return apperrors.Wrap(ErrOverlapConflict, CodeOverlapConflict, "Hotel is already booked for the selected dates", http.StatusBadRequest).
		WithDetails(map[string]any{
			"conflicting_booking_id": conflictingID,
			"check_in_date":          checkIn,
			"check_out_date":         checkOut,
		})
}

func AccessDenied(message string) *apperrors.AppError {
	return apperrors.Forbidden(message).WithCause(ErrAccessDenied)
}

func InvalidStatusTransition(from, to string) *apperrors.AppError {
	return apperrors.Wrap(ErrInvalidStatusTransition, CodeInvalidStatusTransition, "Booking status cannot change from "+from+" to "+to, http.StatusBadRequest).
		WithDetails(map[string]any{"from": from, "to": to})
}

// HotelBusy reports that the hotel's admission lock could not be taken in time.
func HotelBusy(hotelID string, cause error) *apperrors.AppError {
	return apperrors.Unavailable("Hotel").
		WithCause(errors.Join(ErrHotelBusy, cause)).
		WithDetails(map[string]any{"hotel_id": hotelID})
}
