// Package lifecycle implements the generic protected-resource controller:
// tenant scoping, soft activate/deactivate and audit emission composed
// around any resource type that opts into the capability interfaces.
package lifecycle

import "context"

// Resource is the minimal contract every protected resource satisfies.
type Resource interface {
	ResourceID() int64
}

// TenantScoped is the capability a resource type declares when its rows
// belong to one tenant. AssignTenant is called on create so tenant
// membership is never client-controlled.
type TenantScoped interface {
	Resource
	TenantRef() *int64
	AssignTenant(id int64)
}

// SoftDeletable is the capability a resource type declares when it carries
// an active flag instead of a hard delete path.
type SoftDeletable interface {
	Resource
	IsActive() bool
	SetActive(active bool)
}

// Scope restricts which rows an operation may see. Fields are only applied
// when the resource type declares the matching capability.
type Scope struct {
	TenantID   *int64
	ActiveOnly bool
}

// Store is the persistence contract the controller drives. Get must honor
// the scope the same way List does and report shared.ErrNotFound for rows
// outside it.
type Store[T Resource] interface {
	List(ctx context.Context, scope Scope) ([]T, error)
	Get(ctx context.Context, id int64, scope Scope) (T, error)
	Insert(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, item T) (T, error)
}
