package auth

import (
	"context"
	"strings"
)

// Role is an opaque role name carried by the caller
type Role string

const (
	RoleAdmin      Role = "admin"
	RolePurchasing Role = "purchasing"
	RoleLogistics  Role = "logistics"
	RoleWarehouse  Role = "warehouse"
	RoleViewer     Role = "viewer"
)

// Module is a functional area of the API guarded by RequireModule
type Module string

const (
	ModuleCatalog     Module = "catalog"
	ModuleRfq         Module = "rfq"
	ModuleOrders      Module = "orders"
	ModuleShipments   Module = "shipments"
	ModulePacking     Module = "packing"
	ModuleDiscrepancy Module = "discrepancy"
	ModuleNetsis      Module = "netsis"
)

// roleModules lists the modules each role may access. Admin is handled separately.
var roleModules = map[Role][]Module{
	RolePurchasing: {ModuleCatalog, ModuleRfq, ModuleOrders, ModuleNetsis},
	RoleLogistics:  {ModuleOrders, ModuleShipments, ModulePacking, ModuleDiscrepancy},
	RoleWarehouse:  {ModulePacking, ModuleDiscrepancy, ModuleNetsis},
	RoleViewer:     {ModuleCatalog},
}

// UserContext holds authenticated caller information
type UserContext struct {
	Subject  string
	Name     string
	Role     Role
	AuthType string
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// ParseRole lowercases and trims a role claim
func ParseRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// IsAdmin reports whether the caller has the admin role
func (u *UserContext) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CanAccess checks the role to modules table
func (u *UserContext) CanAccess(module Module) bool {
	if u == nil {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	for _, m := range roleModules[u.Role] {
		if m == module {
			return true
		}
	}
	return false
}

// Modules returns the modules available to the caller
func (u *UserContext) Modules() []Module {
	if u == nil {
		return nil
	}
	if u.IsAdmin() {
		return []Module{ModuleCatalog, ModuleRfq, ModuleOrders, ModuleShipments, ModulePacking, ModuleDiscrepancy, ModuleNetsis}
	}
	return append([]Module(nil), roleModules[u.Role]...)
}
