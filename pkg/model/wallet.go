package model

import "time"

// Wallet holds a user's loyalty points.
type Wallet struct {
	UserID      string    `json:"user_id" bson:"user_id"`
	Points      int64     `json:"points" bson:"points"`
	LastUpdated time.Time `json:"last_updated" bson:"last_updated"`
}
