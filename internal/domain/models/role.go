package models

import "strings"

// Role identifies who is submitting a cart.
type Role string

const (
	RoleApplicator Role = "applicator"
	RoleCustomer   Role = "customer"
)

// ParseRole normalizes free-form input into a supported Role.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleApplicator:
		return RoleApplicator, true
	case RoleCustomer:
		return RoleCustomer, true
	default:
		return "", false
	}
}
