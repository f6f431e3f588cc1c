package domain

import (
	"fmt"
	"strings"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	// legacyRoleUser is the role value written by earlier versions of the
	// booking site; rows carrying it are read back as RoleUser.
	legacyRoleUser = "usuario"
)

// User is a registered account. The password hash never leaves the service
// layer: it is excluded from every JSON encoding.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"nombre"`
	Email        string `json:"correo"`
	PasswordHash string `json:"-"`
	Role         string `json:"rol"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// NormalizeEmail trims and lowercases an address so lookups and the unique
// constraint agree on what counts as the same email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseRole maps a requested role onto a known one. Empty input defaults to
// RoleUser.
func ParseRole(role string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", RoleUser, legacyRoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
}
