package authz

import (
	"context"
	"time"
)

// Action is one of the four canonical verbs permission flags are kept for.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// operationActions maps handler operation names onto the canonical verbs.
var operationActions = map[string]Action{
	"list":           ActionView,
	"retrieve":       ActionView,
	"create":         ActionCreate,
	"update":         ActionUpdate,
	"partial_update": ActionUpdate,
	"destroy":        ActionDelete,
}

// ActionForOperation resolves an operation name to its canonical action.
func ActionForOperation(op string) (Action, bool) {
	action, ok := operationActions[op]
	return action, ok
}

// Valid reports whether the action belongs to the canonical verb set.
func (a Action) Valid() bool {
	switch a {
	case ActionView, ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Role is a named policy subject. TenantID is nil for global roles.
// Superadmin marks the unconditional bypass; it is a capability flag, not a
// display-name convention, so renaming a role never grants or revokes it.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TenantID    *int64    `json:"tenant_id,omitempty"`
	Superadmin  bool      `json:"superadmin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Module is a named protected resource type.
type Module struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// Permission is the (role, module) entry of the policy matrix. At most one
// row exists per (RoleID, ModuleID) pair.
type Permission struct {
	ID        int64 `json:"id"`
	RoleID    int64 `json:"role_id"`
	ModuleID  int64 `json:"module_id"`
	CanView   bool  `json:"can_view"`
	CanCreate bool  `json:"can_create"`
	CanUpdate bool  `json:"can_update"`
	CanDelete bool  `json:"can_delete"`
}

// Allows reports whether the permission grants the given action.
func (p Permission) Allows(action Action) bool {
	switch action {
	case ActionView:
		return p.CanView
	case ActionCreate:
		return p.CanCreate
	case ActionUpdate:
		return p.CanUpdate
	case ActionDelete:
		return p.CanDelete
	}
	return false
}

// Principal is the authenticated actor a request runs as.
type Principal struct {
	UserID   int64
	Email    string
	TenantID *int64
	Role     *Role
}

// Authenticated reports whether the principal refers to a real user.
func (p *Principal) Authenticated() bool {
	return p != nil && p.UserID > 0
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context. Nil means the
// request is unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
