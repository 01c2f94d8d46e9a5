package model

import "time"

type Hotel struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	Name          string    `json:"name" bson:"name"`
	Location      string    `json:"location" bson:"location"`
	Description   string    `json:"description,omitempty" bson:"description,omitempty"`
	PricePerNight float64   `json:"price_per_night" bson:"price_per_night"`
	ManagerUserID string    `json:"manager_user_id" bson:"manager_user_id"`
	Version       int64     `json:"-" bson:"version"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

type HotelRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=120"`
	Location      string  `json:"location" validate:"required,min=2,max=200"`
	Description   string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	PricePerNight float64 `json:"price_per_night" validate:"gte=0"`
	ManagerUserID string  `json:"manager_user_id,omitempty" validate:"omitempty,max=64"`
}

// HotelUpdate is a partial update. Nil fields keep their stored value.
type HotelUpdate struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Location      *string  `json:"location,omitempty" validate:"omitempty,min=2,max=200"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	PricePerNight *float64 `json:"price_per_night,omitempty" validate:"omitempty,gte=0"`
}

func (u HotelUpdate) IsEmpty() bool {
	return u.Name == nil && u.Location == nil && u.Description == nil && u.PricePerNight == nil
}

// Apply copies the set fields onto h.
func (u HotelUpdate) Apply(h *Hotel) {
	if u.Name != nil {
		h.Name = *u.Name
	}
	if u.Location != nil {
		h.Location = *u.Location
	}
	if u.Description != nil {
		h.Description = *u.Description
	}
	if u.PricePerNight != nil {
		h.PricePerNight = *u.PricePerNight
	}
}
