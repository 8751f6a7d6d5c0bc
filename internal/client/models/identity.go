package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// NormalizeRole maps any role-like string onto USER or ADMIN. Anything that
// contains "ADMIN" (case-insensitive) is ADMIN; everything else, including
// the empty string, is USER.
func NormalizeRole(s string) Role {
	if strings.Contains(strings.ToUpper(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusDisabled Status = "DISABLED"
	StatusBanned   Status = "BANNED"
)

// Identity is the resolved signed-in user. ID 0 means the token carried no
// numeric subject.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Status   Status `json:"status"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

func (i *Identity) IsActive() bool {
	return i != nil && (i.Status == StatusActive || i.Status == "")
}

// Valid reports whether the cached identity is internally consistent:
// a known role and status when set.
func (i *Identity) Valid() bool {
	if i == nil {
		return false
	}
	switch i.Role {
	case "", RoleUser, RoleAdmin:
	default:
		return false
	}
	switch i.Status {
	case "", StatusActive, StatusDisabled, StatusBanned:
	default:
		return false
	}
	return i.ID >= 0
}

// AuthResult is what the authentication service returns on sign-in or
// sign-up. Role and ExpiresAt are optional.
type AuthResult struct {
	Token     string     `json:"token"`
	Role      string     `json:"role,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Credentials carries sign-in or sign-up input. Email is only used by sign-up.
type Credentials struct {
	Username string
	Email    string
	Password []byte
}
