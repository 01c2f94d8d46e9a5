package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "hotelbook/internal/bookings/errors"
	"hotelbook/internal/bookings/repository"
	"hotelbook/internal/bookings/validator"
	"hotelbook/pkg/config"
	apperrors "hotelbook/pkg/errors"
	"hotelbook/pkg/events"
	"hotelbook/pkg/lock"
	"hotelbook/pkg/model"
)

type BookingService interface {
	Create(ctx context.Context, identity model.Identity, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, identity model.Identity, id string) (*model.Booking, error)
	List(ctx context.Context, identity model.Identity) ([]*model.Booking, error)
	Update(ctx context.Context, identity model.Identity, id string, req *model.BookingUpdate) (*model.Booking, error)
	Cancel(ctx context.Context, identity model.Identity, id string) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	hotels    repository.HotelRepository
	wallets   repository.WalletRepository
	locker    lock.Locker
	publisher events.Publisher
	validator *validator.BookingValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	hotels repository.HotelRepository,
	wallets repository.WalletRepository,
	locker lock.Locker,
	publisher events.Publisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		hotels:    hotels,
		wallets:   wallets,
		locker:    locker,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, identity model.Identity, req *model.BookingRequest) (*model.Booking, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.InvalidInput("Request body is required")
	}

	checkIn, checkOut, err := s.validator.ValidateCreate(req)
	if err != nil {
		s.cfg.Log.Warn("Booking validation failed", "user_id", identity.UserID, "error", err)
		return nil, validationError(err)
	}
	if !checkIn.Before(checkOut) {
		return nil, bookingserrors.InvalidDateRange(checkIn.String(), checkOut.String())
	}

	if _, err := s.findHotel(ctx, req.HotelID); err != nil {
		return nil, err
	}

	now := s.timestamp()
	booking := &model.Booking{
		UserID:       identity.UserID,
		HotelID:      req.HotelID,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		Status:       model.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.withHotelLock(ctx, req.HotelID, func(ctx context.Context) error {
		if err := s.lockHotel(ctx, req.HotelID); err != nil {
			return err
		}
		if err := s.verifyNoOverlap(ctx, booking.HotelID, checkIn, checkOut, ""); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, booking); err != nil {
			if errors.Is(err, bookingserrors.ErrHotelNotFound) {
				return bookingserrors.HotelNotFound(req.HotelID)
			}
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("Failed to create booking", err, "hotel_id", req.HotelID, "user_id", identity.UserID)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"booking_id", booking.ID,
		"hotel_id", booking.HotelID,
		"user_id", booking.UserID,
		"check_in_date", booking.CheckInDate.String(),
		"check_out_date", booking.CheckOutDate.String(),
	)

	s.awardLoyaltyPoints(ctx, booking)
	s.publish(ctx, events.BookingCreated, booking, identity)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, identity model.Identity, id string) (*model.Booking, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	booking, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	hotel, err := s.hotelForPolicy(ctx, identity, booking.HotelID)
	if err != nil {
		return nil, err
	}
	if !canView(identity, booking, hotel) {
		return nil, bookingserrors.AccessDenied("Not allowed to view this booking")
	}
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, identity model.Identity) ([]*model.Booking, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	var (
		bookings []*model.Booking
		err      error
	)
	switch identity.Role {
	case model.RoleAdmin:
		bookings, err = s.repo.FindAll(ctx)
	case model.RoleHotelManager:
		bookings, err = s.repo.FindByManagedHotels(ctx, identity.UserID)
	default:
		bookings, err = s.repo.FindByUser(ctx, identity.UserID)
	}
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings", "user_id", identity.UserID, "role", identity.Role.String(), "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	s.cfg.Log.Debug("Bookings listed",
		"user_id", identity.UserID,
		"role", identity.Role.String(),
		"count", len(bookings),
	)
	return bookings, nil
}

func (s *bookingService) Update(ctx context.Context, identity model.Identity, id string, req *model.BookingUpdate) (*model.Booking, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.InvalidInput("Request body is required")
	}

	patch, err := s.validator.ValidateUpdate(req)
	if err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "booking_id", id, "error", err)
		return nil, validationError(err)
	}

	existing, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	hotel, err := s.hotelForPolicy(ctx, identity, existing.HotelID)
	if err != nil {
		return nil, err
	}
	if err := authorizeMutation(identity, existing, hotel, patch); err != nil {
		s.cfg.Log.Warn("Booking update denied", "booking_id", id, "user_id", identity.UserID, "role", identity.Role.String())
		return nil, err
	}

	var updated *model.Booking
	err = s.withHotelLock(ctx, existing.HotelID, func(ctx context.Context) error {
		if err := s.lockHotel(ctx, existing.HotelID); err != nil {
			return err
		}
		current, err := s.findBooking(ctx, id)
		if err != nil {
			return err
		}

		merged, err := applyPatch(current, patch)
		if err != nil {
			return err
		}
		if merged.IsActive() && patch.HasDates() {
			if err := s.verifyNoOverlap(ctx, merged.HotelID, merged.CheckInDate, merged.CheckOutDate, merged.ID); err != nil {
				return err
			}
		}

		merged.UpdatedAt = s.timestamp()
		if err := s.repo.Update(ctx, merged); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return bookingserrors.BookingNotFound(id)
			}
			return apperrors.Internal("Failed to update booking", err)
		}
		updated = merged
		return nil
	})
	if err != nil {
		s.logFailure("Failed to update booking", err, "booking_id", id, "user_id", identity.UserID)
		return nil, err
	}

	s.cfg.Log.Info("Booking updated successfully",
		"booking_id", updated.ID,
		"hotel_id", updated.HotelID,
		"status", string(updated.Status),
		"user_id", identity.UserID,
	)
	eventType := events.BookingUpdated
	if updated.Status == model.StatusCancelled && existing.Status != model.StatusCancelled {
		eventType = events.BookingCancelled
	}
	s.publish(ctx, eventType, updated, identity)
	return updated, nil
}

func (s *bookingService) Cancel(ctx context.Context, identity model.Identity, id string) (*model.Booking, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	existing, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	hotel, err := s.hotelForPolicy(ctx, identity, existing.HotelID)
	if err != nil {
		return nil, err
	}
	if err := authorizeCancel(identity, existing, hotel); err != nil {
		s.cfg.Log.Warn("Booking cancellation denied", "booking_id", id, "user_id", identity.UserID, "role", identity.Role.String())
		return nil, err
	}
	if existing.Status == model.StatusCancelled {
		return existing, nil
	}

	var (
		cancelled *model.Booking
		changed   bool
	)
	err = s.withHotelLock(ctx, existing.HotelID, func(ctx context.Context) error {
		if err := s.lockHotel(ctx, existing.HotelID); err != nil {
			return err
		}
		current, err := s.findBooking(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == model.StatusCancelled {
			cancelled, changed = current, false
			return nil
		}

		current.Status = model.StatusCancelled
		current.UpdatedAt = s.timestamp()
		if err := s.repo.Update(ctx, current); err != nil {
			return apperrors.Internal("Failed to cancel booking", err)
		}
		cancelled, changed = current, true
		return nil
	})
	if err != nil {
		s.logFailure("Failed to cancel booking", err, "booking_id", id, "user_id", identity.UserID)
		return nil, err
	}

	if changed {
		s.cfg.Log.Info("Booking cancelled successfully", "booking_id", id, "hotel_id", cancelled.HotelID, "user_id", identity.UserID)
		s.publish(ctx, events.BookingCancelled, cancelled, identity)
	}
	return cancelled, nil
}

// --- Helpers ---

// withHotelLock runs fn in a store transaction while holding the hotel's lock.
func (s *bookingService) withHotelLock(ctx context.Context, hotelID string, fn func(ctx context.Context) error) error {
	release, err := s.locker.Acquire(ctx, hotelID)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return bookingserrors.HotelBusy(hotelID, err)
		}
		return apperrors.Internal("Failed to acquire hotel lock", err)
	}
	defer func() {
		if releaseErr := release(context.WithoutCancel(ctx)); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release hotel lock", "hotel_id", hotelID, "error", releaseErr)
		}
	}()

	return s.repo.ExecuteTransaction(ctx, fn)
}

func (s *bookingService) lockHotel(ctx context.Context, hotelID string) error {
	if _, err := s.hotels.LockForAdmission(ctx, hotelID); err != nil {
		if errors.Is(err, bookingserrors.ErrHotelNotFound) {
			return bookingserrors.HotelNotFound(hotelID)
		}
		return apperrors.Internal("Failed to lock hotel", err)
	}
	return nil
}

func (s *bookingService) verifyNoOverlap(ctx context.Context, hotelID string, checkIn, checkOut model.Date, excludeID string) error {
	existing, err := s.repo.FindOverlapping(ctx, hotelID, checkIn, checkOut, excludeID)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	for _, b := range existing {
		if b.ID == excludeID || !b.IsActive() {
			continue
		}
		if b.Overlaps(checkIn, checkOut) {
			return bookingserrors.OverlapConflict(b.ID, b.CheckInDate.String(), b.CheckOutDate.String())
		}
	}
	return nil
}

func (s *bookingService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, bookingserrors.BookingNotFound(id)
	}
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, bookingserrors.BookingNotFound(id)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) findHotel(ctx context.Context, id string) (*model.Hotel, error) {
	hotel, err := s.hotels.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrHotelNotFound) {
			return nil, bookingserrors.HotelNotFound(id)
		}
		return nil, apperrors.Internal("Failed to retrieve hotel", err)
	}
	return hotel, nil
}

// hotelForPolicy loads the hotel only when the role's rule depends on it.
func (s *bookingService) hotelForPolicy(ctx context.Context, identity model.Identity, hotelID string) (*model.Hotel, error) {
	if identity.Role != model.RoleHotelManager {
		return nil, nil
	}
	hotel, err := s.findHotel(ctx, hotelID)
	if err != nil && errors.Is(err, bookingserrors.ErrHotelNotFound) {
		return nil, nil
	}
	return hotel, err
}

// awardLoyaltyPoints is best effort and never undoes the booking.
func (s *bookingService) awardLoyaltyPoints(ctx context.Context, booking *model.Booking) {
	points := int64(s.cfg.LoyaltyPointsPerBooking)
	if s.wallets == nil || points <= 0 {
		return
	}

	awardCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()

	wallet, err := s.wallets.AddPoints(awardCtx, booking.UserID, points)
	if err != nil {
		s.cfg.Log.Warn("Failed to award loyalty points",
			"booking_id", booking.ID,
			"user_id", booking.UserID,
			"points", points,
			"error", err,
		)
		return
	}
	s.cfg.Log.Debug("Loyalty points awarded", "user_id", wallet.UserID, "points", wallet.Points)
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking, actor model.Identity) {
	event := events.NewBookingEvent(eventType, booking, actor, s.timestamp())

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
	defer cancel()

	if err := s.publisher.Publish(publishCtx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

func (s *bookingService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *bookingService) logFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if appErr := apperrors.AsAppError(err); appErr != nil && appErr.HTTPStatus < 500 {
		s.cfg.Log.Warn(msg, args...)
		return
	}
	s.cfg.Log.Error(msg, args...)
}

// applyPatch merges patch into a copy of current and checks the result.
func applyPatch(current *model.Booking, patch model.BookingPatch) (*model.Booking, error) {
	merged := *current

	if patch.HasDates() && current.Status == model.StatusCancelled {
		return nil, bookingserrors.InvalidStatusTransition(string(current.Status), "rescheduled")
	}
	if patch.CheckInDate != nil {
		merged.CheckInDate = *patch.CheckInDate
	}
	if patch.CheckOutDate != nil {
		merged.CheckOutDate = *patch.CheckOutDate
	}
	if patch.Status != nil {
		if !current.Status.CanTransitionTo(*patch.Status) {
			return nil, bookingserrors.InvalidStatusTransition(string(current.Status), string(*patch.Status))
		}
		merged.Status = *patch.Status
	}

	if patch.HasDates() && !merged.CheckInDate.Before(merged.CheckOutDate) {
		return nil, bookingserrors.InvalidDateRange(merged.CheckInDate.String(), merged.CheckOutDate.String())
	}
	return &merged, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Invalid booking input", verrs.Details())
	}
	return apperrors.Validation("Invalid booking input", map[string]any{"error": err.Error()})
}
