package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"hotelbook/pkg/logger"
	"hotelbook/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details flattens the errors into a field -> message map for API responses.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("booking_status", validateBookingStatus); err != nil {
		log.Fatal("Failed to register 'booking_status' validator",
			"error", err,
		)
	}

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	_, ok := model.ParseBookingStatus(fl.Field().String())
	return ok
}

// ValidateCreate checks the payload and returns the parsed dates. Ordering of
// the dates is a domain rule and is left to the service.
func (v *BookingValidator) ValidateCreate(req *model.BookingRequest) (model.Date, model.Date, error) {
	if err := v.validateStruct(req); err != nil {
		return model.Date{}, model.Date{}, err
	}

	checkIn, err := model.ParseDate(req.CheckInDate)
	if err != nil {
		return model.Date{}, model.Date{}, fieldError("check_in_date", "check_in_date must be a date in YYYY-MM-DD format")
	}
	checkOut, err := model.ParseDate(req.CheckOutDate)
	if err != nil {
		return model.Date{}, model.Date{}, fieldError("check_out_date", "check_out_date must be a date in YYYY-MM-DD format")
	}
	return checkIn, checkOut, nil
}

func (v *BookingValidator) ValidateUpdate(req *model.BookingUpdate) (model.BookingPatch, error) {
	var patch model.BookingPatch
	if err := v.validateStruct(req); err != nil {
		return patch, err
	}

	if req.CheckInDate != nil {
		d, err := model.ParseDate(*req.CheckInDate)
		if err != nil {
			return patch, fieldError("check_in_date", "check_in_date must be a date in YYYY-MM-DD format")
		}
		patch.CheckInDate = &d
	}
	if req.CheckOutDate != nil {
		d, err := model.ParseDate(*req.CheckOutDate)
		if err != nil {
			return patch, fieldError("check_out_date", "check_out_date must be a date in YYYY-MM-DD format")
		}
		patch.CheckOutDate = &d
	}
	if req.Status != nil {
		st, _ := model.ParseBookingStatus(*req.Status)
		patch.Status = &st
	}

	if patch.IsEmpty() {
		return patch, fieldError("body", "at least one of check_in_date, check_out_date, status is required")
	}
	return patch, nil
}

func (v *BookingValidator) ValidateHotel(req *model.HotelRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateHotelUpdate(req *model.HotelUpdate) error {
	if err := v.validateStruct(req); err != nil {
		return err
	}
	if req.IsEmpty() {
		return fieldError("body", "at least one of name, location, description, price_per_night is required")
	}
	return nil
}

func (v *BookingValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func fieldError(field, message string) ValidationErrors {
	return ValidationErrors{ValidationError{Field: field, Message: message}}
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "gte":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "booking_status":
			message = fmt.Sprintf("%s must be one of: Pending, Confirmed, Cancelled", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
