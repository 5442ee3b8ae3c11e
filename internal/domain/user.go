package domain

import "time"

// GuestUserID owns orders placed without an account. It never receives
// notifications.
const GuestUserID = "guest"

type UserRole string

const (
	RoleCustomer UserRole = "CUSTOMER"
	RoleAdmin    UserRole = "ADMIN"
)

type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone,omitempty"`
	Role           UserRole   `json:"role"`
	LastNameUpdate *time.Time `json:"last_name_update,omitempty"`
}

// Identity is the authenticated caller as resolved by the outer auth layer.
type Identity struct {
	UserID string
	Role   UserRole
	Name   string
	Email  string
}

func (i Identity) IsGuest() bool {
	return i.UserID == "" || i.UserID == GuestUserID
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Guest is the identity used when nobody is signed in.
var Guest = Identity{UserID: GuestUserID, Role: RoleCustomer}
