package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies which side of the marketplace a user is on
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleSeller
}

// User represents a marketplace account. Role is fixed at creation.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Role      Role      `json:"role" db:"role"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"full_name" db:"full_name"`
	Phone     string    `json:"phone" db:"phone"`
	Address   *string   `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
