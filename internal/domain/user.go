package domain

import "time"

// UserRole is the organisation-wide role of a user.
type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleManager  UserRole = "manager"
	UserRoleEmployee UserRole = "employee"
)

// User is the acting identity resolved by the identity collaborator.
type User struct {
	ID        string
	Username  string
	Email     string
	Role      UserRole
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPrivileged reports whether the user may act on any ticket regardless
// of project membership.
func (u *User) IsPrivileged() bool {
	return u != nil && (u.Role == UserRoleAdmin || u.Role == UserRoleManager)
}

// DisplayName is used in human-readable audit descriptions.
func (u *User) DisplayName() string {
	if u == nil {
		return "Unassigned"
	}
	if u.Username != "" {
		return u.Username
	}
	return u.ID
}
