// Package policy defines the closed set of roles and the static action
// registry, and answers "may this role invoke this action". It is pure
// configuration plus a membership check; unknown role values are rejected at
// the authentication boundary and never reach these functions.
package policy

import (
	dErrors "tally/pkg/domain-errors"
)

// Role is the closed set of caller roles.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// ParseRole validates a role name at a trust boundary.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleAdmin, RoleSuperAdmin:
		return Role(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
}

// Valid reports whether s names a known role. Used by the auth middleware.
func Valid(s string) bool {
	_, err := ParseRole(s)
	return err == nil
}

// ActionKey identifies an action in the registry.
type ActionKey string

const (
	ActionDashboard    ActionKey = "dashboard"
	ActionRedeemReward ActionKey = "redeem_reward"
	ActionScanPurchase ActionKey = "scan_purchase"
	ActionEditSettings ActionKey = "edit_settings"
	ActionManageUsers  ActionKey = "manage_users"
	ActionChangeRoles  ActionKey = "change_roles"
)

// Action describes one entry of the UI action table: each action declares the
// roles allowed to see and invoke it.
type Action struct {
	Key   ActionKey `json:"key"`
	Label string    `json:"label"`
	Route string    `json:"route"`
	Roles []Role    `json:"roles"`
}

// Registry is the static action table. Configuration, not behavior.
var Registry = []Action{
	{
		Key:   ActionDashboard,
		Label: "Dashboard",
		Route: "/dashboard",
		Roles: []Role{RoleCustomer, RoleAdmin, RoleSuperAdmin},
	},
	{
		Key:   ActionRedeemReward,
		Label: "Redeem reward",
		Route: "/rewards/redeem",
		Roles: []Role{RoleCustomer, RoleAdmin, RoleSuperAdmin},
	},
	{
		Key:   ActionScanPurchase,
		Label: "Scan purchase",
		Route: "/scan",
		Roles: []Role{RoleAdmin, RoleSuperAdmin},
	},
	{
		Key:   ActionEditSettings,
		Label: "Settings",
		Route: "/admin/settings",
		Roles: []Role{RoleAdmin, RoleSuperAdmin},
	},
	{
		Key:   ActionManageUsers,
		Label: "Users",
		Route: "/admin/users",
		Roles: []Role{RoleSuperAdmin},
	},
	{
		Key:   ActionChangeRoles,
		Label: "Roles",
		Route: "/admin/roles",
		Roles: []Role{RoleSuperAdmin},
	},
}

// PermittedActions returns the registry entries the role may invoke. Pure and
// total over the three roles; no error path.
func PermittedActions(role Role) []Action {
	var actions []Action
	for _, action := range Registry {
		if roleIn(role, action.Roles) {
			actions = append(actions, action)
		}
	}
	return actions
}

// Can reports whether the role may invoke the action. The central capability
// check used by services instead of scattered role comparisons.
func Can(role Role, key ActionKey) bool {
	for _, action := range Registry {
		if action.Key == key {
			return roleIn(role, action.Roles)
		}
	}
	return false
}

func roleIn(role Role, roles []Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
