package model

import (
	"fmt"
	"strings"
)

type Role int

const (
	RoleUser Role = iota + 1
	RoleHotelManager
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleHotelManager:
		return "hotel_manager"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

func (r Role) Valid() bool {
	return r >= RoleUser && r <= RoleAdmin
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "hotel_manager", "hotelmanager", "manager":
		return RoleHotelManager, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   Role
}

func (i Identity) Valid() bool {
	return i.UserID != "" && i.Role.Valid()
}
