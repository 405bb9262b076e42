package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role determines what a user may do. A role is fixed for the lifetime of a
// session: the authenticated actor carries it and nothing in a request
// payload can change it.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

// ParseRole validates a role string.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleAgent:
		return RoleAgent, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// IsStaff reports whether the role belongs to support staff.
func (r Role) IsStaff() bool {
	return r == RoleAgent || r == RoleAdmin
}

// User is both an account record and the actor passed into every core
// operation.
type User struct {
	ID           string
	Name         string
	Email        string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
