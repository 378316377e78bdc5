package domain

import (
	"errors"
	"time"
)

const (
	RoleSuperuser = "superuser"
	RoleStaff     = "staff"
	RoleMember    = "member"
)

var (
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAccount     = errors.New("invalid account")
	ErrForbidden          = errors.New("access forbidden")
	ErrSessionRevoked     = errors.New("session revoked")
)

// Account is an identity known to the identity store. A superuser account
// has unrestricted access to the administrative interface.
type Account struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	IsStaff      bool       `json:"is_staff"`
	IsSuperuser  bool       `json:"is_superuser"`
	IsActive     bool       `json:"is_active"`
	DateJoined   time.Time  `json:"date_joined"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Role collapses the privilege flags into the role carried by session tokens.
func (a *Account) Role() string {
	switch {
	case a.IsSuperuser:
		return RoleSuperuser
	case a.IsStaff:
		return RoleStaff
	default:
		return RoleMember
	}
}

// CanUseAdmin reports whether the account may sign in to /admin.
func (a *Account) CanUseAdmin() bool {
	return a.IsActive && (a.IsStaff || a.IsSuperuser)
}
