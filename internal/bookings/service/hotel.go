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
	"hotelbook/pkg/model"
	"hotelbook/pkg/sanitizer"
)

type HotelService interface {
	Create(ctx context.Context, identity model.Identity, req *model.HotelRequest) (*model.Hotel, error)
	GetByID(ctx context.Context, identity model.Identity, id string) (*model.Hotel, error)
	List(ctx context.Context, identity model.Identity) ([]*model.Hotel, error)
	Update(ctx context.Context, identity model.Identity, id string, req *model.HotelUpdate) (*model.Hotel, error)
}

type hotelService struct {
	repo      repository.HotelRepository
	validator *validator.BookingValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewHotelService(repo repository.HotelRepository, validator *validator.BookingValidator, cfg *config.Config) HotelService {
	return &hotelService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *hotelService) Create(ctx context.Context, identity model.Identity, req *model.HotelRequest) (*model.Hotel, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.InvalidInput("Request body is required")
	}

	sanitizeHotel(req)
	switch identity.Role {
	case model.RoleAdmin:
		if req.ManagerUserID == "" {
			return nil, apperrors.Validation("Invalid hotel input", map[string]any{"manager_user_id": "manager_user_id is required"})
		}
	case model.RoleHotelManager:
		if req.ManagerUserID != "" && req.ManagerUserID != identity.UserID {
			return nil, bookingserrors.AccessDenied("Hotel managers can only create hotels they manage")
		}
		req.ManagerUserID = identity.UserID
	default:
		return nil, bookingserrors.AccessDenied("Only hotel managers and admins can create hotels")
	}

	if err := s.validator.ValidateHotel(req); err != nil {
		s.cfg.Log.Warn("Hotel validation failed", "user_id", identity.UserID, "error", err)
		return nil, validationError(err)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	hotel := &model.Hotel{
		Name:          req.Name,
		Location:      req.Location,
		Description:   req.Description,
		PricePerNight: req.PricePerNight,
		ManagerUserID: req.ManagerUserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, hotel); err != nil {
		s.cfg.Log.Error("Failed to create hotel", "error", err)
		return nil, apperrors.Internal("Failed to create hotel", err)
	}

	s.cfg.Log.Info("Hotel created successfully",
		"hotel_id", hotel.ID,
		"manager_user_id", hotel.ManagerUserID,
		"user_id", identity.UserID,
	)
	return hotel, nil
}

func (s *hotelService) GetByID(ctx context.Context, identity model.Identity, id string) (*model.Hotel, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	hotel, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrHotelNotFound) {
			return nil, bookingserrors.HotelNotFound(id)
		}
		return nil, apperrors.Internal("Failed to retrieve hotel", err)
	}
	return hotel, nil
}

// List returns every hotel to admins and the managed hotels to managers.
func (s *hotelService) List(ctx context.Context, identity model.Identity) ([]*model.Hotel, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	var (
		hotels []*model.Hotel
		err    error
	)
	switch identity.Role {
	case model.RoleAdmin:
		hotels, err = s.repo.FindAll(ctx)
	case model.RoleHotelManager:
		hotels, err = s.repo.FindByManager(ctx, identity.UserID)
	default:
		return nil, bookingserrors.AccessDenied("Only hotel managers and admins can list hotels")
	}
	if err != nil {
		s.cfg.Log.Error("Failed to list hotels", "user_id", identity.UserID, "role", identity.Role.String(), "error", err)
		return nil, apperrors.Internal("Failed to retrieve hotels", err)
	}

	s.cfg.Log.Debug("Hotels listed", "user_id", identity.UserID, "role", identity.Role.String(), "count", len(hotels))
	return hotels, nil
}

func (s *hotelService) Update(ctx context.Context, identity model.Identity, id string, req *model.HotelUpdate) (*model.Hotel, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.InvalidInput("Request body is required")
	}

	sanitizeHotelUpdate(req)
	if err := s.validator.ValidateHotelUpdate(req); err != nil {
		s.cfg.Log.Warn("Hotel update validation failed", "hotel_id", id, "error", err)
		return nil, validationError(err)
	}

	hotel, err := s.GetByID(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeHotelUpdate(identity, hotel); err != nil {
		s.cfg.Log.Warn("Hotel update denied", "hotel_id", id, "user_id", identity.UserID, "role", identity.Role.String())
		return nil, err
	}

	req.Apply(hotel)
	hotel.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	if err := s.repo.Update(ctx, hotel); err != nil {
		if errors.Is(err, bookingserrors.ErrHotelNotFound) {
			return nil, bookingserrors.HotelNotFound(id)
		}
		s.cfg.Log.Error("Failed to update hotel", "hotel_id", id, "error", err)
		return nil, apperrors.Internal("Failed to update hotel", err)
	}

	s.cfg.Log.Info("Hotel updated successfully", "hotel_id", hotel.ID, "user_id", identity.UserID)
	return hotel, nil
}

func sanitizeHotelUpdate(req *model.HotelUpdate) {
	if req.Name != nil {
		*req.Name = sanitizer.SanitizeName(*req.Name)
	}
	if req.Location != nil {
		*req.Location = sanitizer.SanitizeName(*req.Location)
	}
	if req.Description != nil {
		*req.Description = sanitizer.SanitizeDescription(*req.Description)
	}
}

func sanitizeHotel(req *model.HotelRequest) {
	req.Name = sanitizer.SanitizeName(req.Name)
	req.Location = sanitizer.SanitizeName(req.Location)
	req.Description = sanitizer.SanitizeDescription(req.Description)
	req.ManagerUserID = sanitizer.SanitizeIdentifier(req.ManagerUserID)
}
