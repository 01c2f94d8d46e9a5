package model

import "time"

// BookingLock is an advisory per-hotel lock document. Owner is the token of the
// holder; only the holder may release it before it expires.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
