package identity

import (
	"strings"

	"github.com/eshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Role is the storefront role carried by an authenticated user
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

// ParseRole validates a role claim. Unknown roles are rejected rather than
// defaulted so that a malformed token never grants access.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleCustomer:
		return RoleCustomer, nil
	}
	return "", shared.NewDomainError("INVALID_ROLE", "Unknown role "+raw)
}

// Principal is the authenticated caller, validated once at the HTTP boundary
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// NewPrincipal builds a principal from raw token claims
func NewPrincipal(userID, email, role string) (Principal, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return Principal{}, shared.NewDomainError("INVALID_USER_ID", "Invalid user ID")
	}
	r, err := ParseRole(role)
	if err != nil {
		return Principal{}, err
	}
	return Principal{UserID: id, Email: email, Role: r}, nil
}

// HasRole reports whether the principal holds the given role
func (p Principal) HasRole(role Role) bool {
	return p.Role == role
}

// IsAdmin reports whether the principal is an administrator
func (p Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}
