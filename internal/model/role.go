package model

import "fmt"

// Role is the closed set of user roles. A role is a flat tag that selects
// a capability set, not a hierarchy.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleFarmer Role = "farmer"
	RoleBuyer  Role = "buyer"
	RoleAgent  Role = "agent"
)

// AllRoles lists every role in display order
var AllRoles = []Role{RoleAdmin, RoleFarmer, RoleBuyer, RoleAgent}

// ParseRole converts user input into a Role
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleFarmer, RoleBuyer, RoleAgent:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// SelfRegistrable reports whether the role may be chosen on the public register form
func (r Role) SelfRegistrable() bool {
	switch r {
	case RoleFarmer, RoleBuyer, RoleAgent:
		return true
	case RoleAdmin:
		return false
	}
	return false
}

// DisplayName returns a human label for the role
func (r Role) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleFarmer:
		return "Farmer"
	case RoleBuyer:
		return "Buyer"
	case RoleAgent:
		return "Agent"
	}
	return string(r)
}
