package model

import "time"

// User roles.  CUSTOMER accounts create bookings; OWNER accounts manage
// offerings, sessions and discount codes.
const (
	RoleCustomer = "CUSTOMER"
	RoleOwner    = "OWNER"
)

// User mirrors the 'users' table.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
