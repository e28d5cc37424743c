package domain

import (
	"strings"
	"time"
)

// Role is the access class of a user.
type Role string

const (
	// RoleCompany creates and manages tickets.
	RoleCompany Role = "company"
	// RoleRegularUser receives tickets.
	RoleRegularUser Role = "regular-user"
)

// Roles lists every role in display order.
var Roles = []Role{RoleCompany, RoleRegularUser}

// ParseRole converts user input into a Role, defaulting to RoleRegularUser when empty.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return RoleRegularUser, true
	case RoleCompany:
		return RoleCompany, true
	case RoleRegularUser:
		return RoleRegularUser, true
	default:
		return "", false
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCompany || r == RoleRegularUser
}

// Label is the human-readable role name.
func (r Role) Label() string {
	switch r {
	case RoleCompany:
		return "Company"
	case RoleRegularUser:
		return "User"
	default:
		return string(r)
	}
}

// User is an account that can sign in.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Role         Role      `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

// IsCompany reports whether the user manages tickets.
func (u *User) IsCompany() bool {
	return u != nil && u.Role == RoleCompany
}
