package models

import "time"

// Role represents the role of a user in the academy
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleClient  Role = "CLIENT"
	RoleAdmin   Role = "ADMIN"
)

// Rank returns the privilege rank of a role, higher is more privileged
func (r Role) Rank() int {
	switch r {
	case RoleStudent:
		return 1
	case RoleClient:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// User represents a registered user
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
