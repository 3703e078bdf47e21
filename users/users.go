package users

import "time"

// RoleType represents a role the backend assigns to an account
type RoleType string

const (
	RoleCustomer RoleType = "customer" // Regular customer booking shoots
	RolePilot    RoleType = "pilot"    // Drone pilot fulfilling bookings
	RoleAdmin    RoleType = "admin"    // Back-office administrator
)

// User is the authenticated account profile as the API returns it. The client
// treats it as read-only data; all mutation happens server-side.
type User struct {
	ID        string     `json:"id,omitempty"`         // Unique identifier for the user
	Email     string     `json:"email,omitempty"`      // User's email address
	FirstName string     `json:"first_name,omitempty"` // First name of the user
	LastName  string     `json:"last_name,omitempty"`  // Last name of the user
	Phone     string     `json:"phone,omitempty"`      // Contact phone number
	Language  string     `json:"language,omitempty"`   // Preferred locale tag, e.g. "fr"
	Roles     []RoleType `json:"roles,omitempty"`      // Roles assigned to the account
	CreatedAt time.Time  `json:"created_at,omitempty"` // Date and time when the user registered
}

// FullName returns the display name for the profile.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// HasRole reports whether the account carries the given role.
func (u *User) HasRole(role RoleType) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
