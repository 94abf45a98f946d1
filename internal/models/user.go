package models

import "time"

// Role is the closed set of account roles. Every branch on Role must handle all values.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleThirdParty Role = "third_party"
	RoleSupervisor Role = "supervisor"
)

// Roles lists every known role in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleStudent, RoleInstructor, RoleThirdParty, RoleSupervisor}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RoleInstructor, RoleThirdParty, RoleSupervisor:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	FullName     string    `db:"full_name" json:"full_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	DateJoined   time.Time `db:"date_joined" json:"date_joined"`
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
