package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/comercio-cloud/comercio/internal/audit"
	"github.com/comercio-cloud/comercio/internal/authz"
	"github.com/comercio-cloud/comercio/internal/shared"
)

// Authorizer answers "may this principal perform this action on this
// resource type". Satisfied by *authz.Service.
type Authorizer interface {
	Decide(ctx context.Context, p *authz.Principal, module string, action authz.Action) authz.Decision
}

// Event describes a completed mutation for downstream side channels.
type Event struct {
	Module     string       `json:"module"`
	Action     audit.Action `json:"action"`
	ResourceID int64        `json:"resource_id"`
	TenantID   *int64       `json:"tenant_id,omitempty"`
	ActorID    int64        `json:"actor_id"`
}

// EventSink receives events after a mutation commits. Implementations are
// best-effort by contract.
type EventSink interface {
	ResourceEvent(ctx context.Context, event Event) error
}

// Hooks are the overridable extension points a resource endpoint may set.
// All of them are optional.
type Hooks[T Resource] struct {
	// BeforeCreate runs after authorization and before persistence;
	// an error aborts the create with no mutation and no audit entry.
	BeforeCreate func(ctx context.Context, p *authz.Principal, item T) error
	// BeforeUpdate runs after the scoped lookup and before persistence.
	BeforeUpdate func(ctx context.Context, p *authz.Principal, existing, item T) error
	// ListScope may widen or narrow the scope computed from capabilities.
	ListScope func(ctx context.Context, p *authz.Principal, scope Scope) Scope
	// Describe renders the audit description for an operation.
	Describe func(action audit.Action, item T) string
}

// Controller composes authorization, tenant scoping, persistence and audit
// emission around one resource type. Within an operation the order is
// fixed: authorize, then mutate, then side effects — never reordered,
// never partially skipped.
type Controller[T Resource] struct {
	module string
	authz  Authorizer
	store  Store[T]
	audit  audit.Recorder
	events EventSink
	hooks  Hooks[T]
	logger *slog.Logger
}

// New constructs a Controller for the named module.
func New[T Resource](module string, authorizer Authorizer, store Store[T], recorder audit.Recorder, logger *slog.Logger) *Controller[T] {
	return &Controller[T]{
		module: module,
		authz:  authorizer,
		store:  store,
		audit:  recorder,
		logger: logger,
	}
}

// operationAction resolves a controller operation to its canonical verb. An
// unknown operation yields the zero Action, which no policy check accepts.
func operationAction(op string) authz.Action {
	action, _ := authz.ActionForOperation(op)
	return action
}

// WithHooks sets the endpoint hooks.
func (c *Controller[T]) WithHooks(hooks Hooks[T]) *Controller[T] {
	c.hooks = hooks
	return c
}

// WithEvents sets the post-mutation event sink.
func (c *Controller[T]) WithEvents(sink EventSink) *Controller[T] {
	c.events = sink
	return c
}

// Module returns the protected module name the controller guards.
func (c *Controller[T]) Module() string {
	return c.module
}

// List returns the instances visible to the principal: tenant-filtered when
// the type is tenant-scoped, active-only when it is soft-deletable. A type
// lacking a capability skips that filter silently.
func (c *Controller[T]) List(ctx context.Context, p *authz.Principal) ([]T, error) {
	if err := c.authz.Decide(ctx, p, c.module, operationAction("list")).Err(); err != nil {
		return nil, err
	}
	scope := c.visibleScope(ctx, p)
	return c.store.List(ctx, scope)
}

// Get fetches one visible instance.
func (c *Controller[T]) Get(ctx context.Context, p *authz.Principal, id int64) (T, error) {
	var zero T
	if err := c.authz.Decide(ctx, p, c.module, operationAction("retrieve")).Err(); err != nil {
		return zero, err
	}
	return c.store.Get(ctx, id, c.visibleScope(ctx, p))
}

// Create authorizes, injects the principal's tenant, persists and emits the
// audit entry. A deny aborts before persistence; no partial state exists.
func (c *Controller[T]) Create(ctx context.Context, p *authz.Principal, item T) (T, error) {
	var zero T
	if err := c.authz.Decide(ctx, p, c.module, operationAction("create")).Err(); err != nil {
		return zero, err
	}
	if c.hooks.BeforeCreate != nil {
		if err := c.hooks.BeforeCreate(ctx, p, item); err != nil {
			return zero, err
		}
	}
	if ts, ok := any(item).(TenantScoped); ok && p.TenantID != nil {
		// Whatever tenant the client supplied is overwritten here.
		ts.AssignTenant(*p.TenantID)
	}
	if sd, ok := any(item).(SoftDeletable); ok {
		sd.SetActive(true)
	}

	created, err := c.store.Insert(ctx, item)
	if err != nil {
		return zero, err
	}
	c.sideEffects(ctx, p, audit.ActionCreate, created)
	return created, nil
}

// Update authorizes, looks the instance up within the principal's scope and
// persists the change.
func (c *Controller[T]) Update(ctx context.Context, p *authz.Principal, item T) (T, error) {
	var zero T
	if err := c.authz.Decide(ctx, p, c.module, operationAction("update")).Err(); err != nil {
		return zero, err
	}
	existing, err := c.store.Get(ctx, item.ResourceID(), c.lookupScope(p))
	if err != nil {
		return zero, err
	}
	if c.hooks.BeforeUpdate != nil {
		if err := c.hooks.BeforeUpdate(ctx, p, existing, item); err != nil {
			return zero, err
		}
	}
	if ts, ok := any(item).(TenantScoped); ok {
		// Tenant membership never moves on update.
		if ref := any(existing).(TenantScoped).TenantRef(); ref != nil {
			ts.AssignTenant(*ref)
		}
	}
	if sd, ok := any(item).(SoftDeletable); ok {
		// Activate/Deactivate are the only transitions for the flag.
		sd.SetActive(any(existing).(SoftDeletable).IsActive())
	}

	updated, err := c.store.Update(ctx, item)
	if err != nil {
		return zero, err
	}
	c.sideEffects(ctx, p, audit.ActionEdit, updated)
	return updated, nil
}

// Deactivate soft-deletes an instance. Idempotent: deactivating an already
// inactive instance succeeds and emits a fresh audit entry. It is the
// destroy operation of the route set, so it authorizes as a delete.
func (c *Controller[T]) Deactivate(ctx context.Context, p *authz.Principal, id int64) (T, error) {
	return c.setActive(ctx, p, id, false, operationAction("destroy"), audit.ActionDeactivate)
}

// Activate restores a soft-deleted instance. Also idempotent; restoring is
// an edit of the active flag, so it authorizes as an update.
func (c *Controller[T]) Activate(ctx context.Context, p *authz.Principal, id int64) (T, error) {
	return c.setActive(ctx, p, id, true, operationAction("partial_update"), audit.ActionActivate)
}

func (c *Controller[T]) setActive(ctx context.Context, p *authz.Principal, id int64, active bool, verb authz.Action, event audit.Action) (T, error) {
	var zero T
	if err := c.authz.Decide(ctx, p, c.module, verb).Err(); err != nil {
		return zero, err
	}
	// Lookup ignores the active filter so both transitions stay idempotent.
	item, err := c.store.Get(ctx, id, c.lookupScope(p))
	if err != nil {
		return zero, err
	}
	sd, ok := any(item).(SoftDeletable)
	if !ok {
		return zero, fmt.Errorf("lifecycle: %s does not support soft delete", c.module)
	}
	sd.SetActive(active)

	updated, err := c.store.Update(ctx, item)
	if err != nil {
		return zero, err
	}
	c.sideEffects(ctx, p, event, updated)
	return updated, nil
}

// visibleScope is the scope for list/retrieve: tenant plus active-only.
func (c *Controller[T]) visibleScope(ctx context.Context, p *authz.Principal) Scope {
	scope := c.lookupScope(p)
	var zero T
	if _, ok := any(zero).(SoftDeletable); ok {
		scope.ActiveOnly = true
	}
	if c.hooks.ListScope != nil {
		scope = c.hooks.ListScope(ctx, p, scope)
	}
	return scope
}

// lookupScope is the scope for mutations: tenant isolation only, so
// inactive rows remain reachable for activate.
func (c *Controller[T]) lookupScope(p *authz.Principal) Scope {
	scope := Scope{}
	var zero T
	if _, ok := any(zero).(TenantScoped); ok && p != nil && p.TenantID != nil {
		scope.TenantID = p.TenantID
	}
	return scope
}

// sideEffects emits the audit entry and the downstream event. Both are
// best-effort: the mutation has committed and a side-channel failure must
// not undo the caller's success, only leave a log line behind.
func (c *Controller[T]) sideEffects(ctx context.Context, p *authz.Principal, action audit.Action, item T) {
	entry := audit.Entry{
		Module:      c.module,
		Action:      action,
		Description: c.describe(action, item),
	}
	if p != nil && p.UserID > 0 {
		userID := p.UserID
		entry.UserID = &userID
	}
	if origin := shared.OriginFromContext(ctx); origin != "" {
		entry.IP = &origin
	}
	if _, err := c.audit.Record(ctx, entry); err != nil && c.logger != nil {
		c.logger.Error("audit record failed",
			slog.String("module", c.module),
			slog.String("action", string(action)),
			slog.Any("error", err))
	}

	if c.events != nil {
		event := Event{
			Module:     c.module,
			Action:     action,
			ResourceID: item.ResourceID(),
		}
		if p != nil {
			event.ActorID = p.UserID
			event.TenantID = p.TenantID
		}
		if err := c.events.ResourceEvent(ctx, event); err != nil && c.logger != nil {
			c.logger.Warn("resource event dispatch failed",
				slog.String("module", c.module),
				slog.Any("error", err))
		}
	}
}

func (c *Controller[T]) describe(action audit.Action, item T) string {
	if c.hooks.Describe != nil {
		return c.hooks.Describe(action, item)
	}
	verb := map[audit.Action]string{
		audit.ActionCreate:     "created",
		audit.ActionEdit:       "updated",
		audit.ActionActivate:   "activated",
		audit.ActionDeactivate: "deactivated",
	}[action]
	if verb == "" {
		verb = string(action)
	}
	return fmt.Sprintf("%s #%d %s", c.module, item.ResourceID(), verb)
}
