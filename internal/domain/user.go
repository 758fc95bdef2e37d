package domain

import "time"

// UserRole is the access class attached to a user.
type UserRole string

const (
	RoleClient   UserRole = "Client"
	RoleOwner    UserRole = "Owner"
	RoleDelivery UserRole = "Delivery"
)

// Roles lists every assignable role.
var Roles = []UserRole{RoleClient, RoleOwner, RoleDelivery}

// Valid reports whether r is one of the assignable roles.
func (r UserRole) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// User is the account aggregate. PasswordHash only ever holds a bcrypt hash.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         UserRole
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
