package lifecycle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/comercio-cloud/comercio/internal/audit"
	"github.com/comercio-cloud/comercio/internal/authz"
	"github.com/comercio-cloud/comercio/internal/lifecycle"
	"github.com/comercio-cloud/comercio/internal/shared"
	_ "github.com/comercio-cloud/comercio/testing"
)

// widget opts into both capabilities.
type widget struct {
	ID       int64
	Name     string
	TenantID *int64
	Active   bool
}

func (w *widget) ResourceID() int64     { return w.ID }
func (w *widget) TenantRef() *int64     { return w.TenantID }
func (w *widget) AssignTenant(id int64) { w.TenantID = &id }
func (w *widget) IsActive() bool        { return w.Active }
func (w *widget) SetActive(a bool)      { w.Active = a }

// plainWidget opts into neither capability.
type plainWidget struct {
	ID   int64
	Name string
}

func (w *plainWidget) ResourceID() int64 { return w.ID }

type memStore[T lifecycle.Resource] struct {
	items     map[int64]T
	nextID    int64
	inserts   int
	updates   int
	matches   func(T, lifecycle.Scope) bool
	persistID func(T, int64)
}

func (s *memStore[T]) List(ctx context.Context, scope lifecycle.Scope) ([]T, error) {
	var out []T
	for _, item := range s.items {
		if s.matches(item, scope) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *memStore[T]) Get(ctx context.Context, id int64, scope lifecycle.Scope) (T, error) {
	var zero T
	item, ok := s.items[id]
	if !ok || !s.matches(item, scope) {
		return zero, shared.ErrNotFound
	}
	return item, nil
}

func (s *memStore[T]) Insert(ctx context.Context, item T) (T, error) {
	s.nextID++
	s.persistID(item, s.nextID)
	s.items[item.ResourceID()] = item
	s.inserts++
	return item, nil
}

func (s *memStore[T]) Update(ctx context.Context, item T) (T, error) {
	var zero T
	if _, ok := s.items[item.ResourceID()]; !ok {
		return zero, shared.ErrNotFound
	}
	s.items[item.ResourceID()] = item
	s.updates++
	return item, nil
}

func newWidgetStore() *memStore[*widget] {
	return &memStore[*widget]{
		items: make(map[int64]*widget),
		matches: func(w *widget, scope lifecycle.Scope) bool {
			if scope.TenantID != nil && (w.TenantID == nil || *w.TenantID != *scope.TenantID) {
				return false
			}
			if scope.ActiveOnly && !w.Active {
				return false
			}
			return true
		},
		persistID: func(w *widget, id int64) { w.ID = id },
	}
}

type allowAll struct{}

func (allowAll) Decide(ctx context.Context, p *authz.Principal, module string, action authz.Action) authz.Decision {
	return authz.Allow
}

type denyAll struct{ calls int }

func (d *denyAll) Decide(ctx context.Context, p *authz.Principal, module string, action authz.Action) authz.Decision {
	d.calls++
	return authz.Deny(authz.ReasonInsufficient)
}

type memRecorder struct {
	entries []audit.Entry
	err     error
}

func (r *memRecorder) Record(ctx context.Context, entry audit.Entry) (audit.Entry, error) {
	if r.err != nil {
		return audit.Entry{}, r.err
	}
	entry.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, entry)
	return entry, nil
}

type memSink struct {
	events []lifecycle.Event
	err    error
}

func (s *memSink) ResourceEvent(ctx context.Context, event lifecycle.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func tenantPrincipal(userID, tenantID int64) *authz.Principal {
	return &authz.Principal{UserID: userID, TenantID: &tenantID, Role: &authz.Role{ID: 1, Name: "SALES_AGENT"}}
}

func TestCreateInjectsPrincipalTenant(t *testing.T) {
	store := newWidgetStore()
	recorder := &memRecorder{}
	ctrl := lifecycle.New[*widget]("Widget", allowAll{}, store, recorder, nil)

	foreign := int64(99)
	created, err := ctrl.Create(context.Background(), tenantPrincipal(7, 4), &widget{Name: "a", TenantID: &foreign})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.TenantID == nil || *created.TenantID != 4 {
		t.Fatalf("expected tenant overwritten with principal's, got %v", created.TenantID)
	}
	if !created.Active {
		t.Fatalf("expected new instance active")
	}
	if len(recorder.entries) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(recorder.entries))
	}
	entry := recorder.entries[0]
	if entry.Action != audit.ActionCreate || entry.Module != "Widget" {
		t.Fatalf("unexpected audit entry %+v", entry)
	}
	if entry.UserID == nil || *entry.UserID != 7 {
		t.Fatalf("expected acting user recorded, got %v", entry.UserID)
	}
}

func TestDenyStopsBeforeMutationAndAudit(t *testing.T) {
	store := newWidgetStore()
	recorder := &memRecorder{}
	ctrl := lifecycle.New[*widget]("Widget", &denyAll{}, store, recorder, nil)

	_, err := ctrl.Create(context.Background(), tenantPrincipal(7, 4), &widget{Name: "a"})
	if !errors.Is(err, shared.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if store.inserts != 0 {
		t.Fatalf("expected no insert on deny")
	}
	if len(recorder.entries) != 0 {
		t.Fatalf("expected no audit entry on deny, got %d", len(recorder.entries))
	}
}

func TestListScopesTenantAndActive(t *testing.T) {
	store := newWidgetStore()
	t4, t5 := int64(4), int64(5)
	store.items[1] = &widget{ID: 1, TenantID: &t4, Active: true}
	store.items[2] = &widget{ID: 2, TenantID: &t4, Active: false}
	store.items[3] = &widget{ID: 3, TenantID: &t5, Active: true}
	ctrl := lifecycle.New[*widget]("Widget", allowAll{}, store, &memRecorder{}, nil)

	items, err := ctrl.List(context.Background(), tenantPrincipal(7, 4))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].ID != 1 {
		t.Fatalf("expected only the active same-tenant row, got %v", items)
	}
}

func TestGetOutsideTenantIsNotFound(t *testing.T) {
	store := newWidgetStore()
	t5 := int64(5)
	store.items[3] = &widget{ID: 3, TenantID: &t5, Active: true}
	ctrl := lifecycle.New[*widget]("Widget", allowAll{}, store, &memRecorder{}, nil)

	_, err := ctrl.Get(context.Background(), tenantPrincipal(7, 4), 3)
	if !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound across tenants, got %v", err)
	}
}

func TestUpdatePreservesTenantAndActiveFlag(t *testing.T) {
	store := newWidgetStore()
	t4 := int64(4)
	store.items[1] = &widget{ID: 1, Name: "old", TenantID: &t4, Active: false}
	ctrl := lifecycle.New[*widget]("Widget", allowAll{}, store, &memRecorder{}, nil)

	updated, err := ctrl.Update(context.Background(), tenantPrincipal(7, 4), &widget{ID: 1, Name: "new", Active: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "new" {
		t.Fatalf("expected name updated")
	}
	if updated.TenantID == nil || *updated.TenantID != 4 {
		t.Fatalf("expected tenant preserved, got %v", updated.TenantID)
	}
	if updated.Active {
		t.Fatalf("expected active flag preserved; update must not reactivate")
	}
}

func TestDeactivateIsIdempotentAndAlwaysAudits(t *testing.T) {
	store := newWidgetStore()
	t4 := int64(4)
	store.items[1] = &widget{ID: 1, TenantID: &t4, Active: true}
	recorder := &memRecorder{}
	ctrl := lifecycle.New[*widget]("Widget", allowAll{}, store, recorder, nil)

	p := tenantPrincipal(7, 4)
	for i := 0; i < 2; i++ {
		item, err := ctrl.Deactivate(context.Background(), p, 1)
		if err != nil {
			t.Fatalf("deactivate %d: %v", i, err)
		}
		if item.Active {
			t.Fatalf("deactivate %d: expected inactive", i)
		}
	}
	if len(recorder.entries) != 2 {
		t.Fatalf("expected an audit entry per call, got %d", len(recorder.entries))
	}
	for _, entry := range recorder.entries {
		if entry.Action != audit.ActionDeactivate {
			t.Fatalf("unexpected action %s", entry.Action)
		}
	}
}

func TestActivateReachesInactiveRows(t *testing.T) {
	store := newWidgetStore()
	t4 := int64(4)
	store.items[1] = &widget{ID: 1, TenantID: &t4, Active: false}
	recorder := &memRecorder{}
	ctrl := lifecycle.New[*widget]("Widget", allowAll{}, store, recorder, nil)

	item, err := ctrl.Activate(context.Background(), tenantPrincipal(7, 4), 1)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !item.Active {
		t.Fatalf("expected active after activate")
	}
	if len(recorder.entries) != 1 || recorder.entries[0].Action != audit.ActionActivate {
		t.Fatalf("expected one ACTIVAR entry, got %+v", recorder.entries)
	}
}

func TestMissingTargetEmitsNoAudit(t *testing.T) {
	store := newWidgetStore()
	recorder := &memRecorder{}
	ctrl := lifecycle.New[*widget]("Widget", allowAll{}, store, recorder, nil)

	_, err := ctrl.Deactivate(context.Background(), tenantPrincipal(7, 4), 42)
	if !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(recorder.entries) != 0 {
		t.Fatalf("expected no audit entry for failed operation")
	}
}

func TestAuditFailureDoesNotFailOperation(t *testing.T) {
	store := newWidgetStore()
	recorder := &memRecorder{err: errors.New("bitacora down")}
	ctrl := lifecycle.New[*widget]("Widget", allowAll{}, store, recorder, nil)

	created, err := ctrl.Create(context.Background(), tenantPrincipal(7, 4), &widget{Name: "a"})
	if err != nil {
		t.Fatalf("expected create to succeed despite audit failure, got %v", err)
	}
	if created.ID == 0 || store.inserts != 1 {
		t.Fatalf("expected mutation committed")
	}
}

func TestEventSinkFailureDoesNotFailOperation(t *testing.T) {
	store := newWidgetStore()
	sink := &memSink{err: errors.New("queue down")}
	ctrl := lifecycle.New[*widget]("Widget", allowAll{}, store, &memRecorder{}, nil).WithEvents(sink)

	if _, err := ctrl.Create(context.Background(), tenantPrincipal(7, 4), &widget{Name: "a"}); err != nil {
		t.Fatalf("expected create to succeed despite sink failure, got %v", err)
	}
}

func TestEventSinkReceivesMutations(t *testing.T) {
	store := newWidgetStore()
	sink := &memSink{}
	ctrl := lifecycle.New[*widget]("Widget", allowAll{}, store, &memRecorder{}, nil).WithEvents(sink)

	created, err := ctrl.Create(context.Background(), tenantPrincipal(7, 4), &widget{Name: "a"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(sink.events) != 1 {
		t.Fatalf("expected one event, got %d", len(sink.events))
	}
	event := sink.events[0]
	if event.ResourceID != created.ID || event.Module != "Widget" || event.Action != audit.ActionCreate {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.ActorID != 7 {
		t.Fatalf("expected actor recorded, got %d", event.ActorID)
	}
}

func TestPlainResourceSkipsCapabilityFilters(t *testing.T) {
	store := &memStore[*plainWidget]{
		items:     map[int64]*plainWidget{1: {ID: 1, Name: "a"}},
		matches:   func(w *plainWidget, scope lifecycle.Scope) bool { return scope.TenantID == nil && !scope.ActiveOnly },
		persistID: func(w *plainWidget, id int64) { w.ID = id },
	}
	ctrl := lifecycle.New[*plainWidget]("Plain", allowAll{}, store, &memRecorder{}, nil)

	items, err := ctrl.List(context.Background(), tenantPrincipal(7, 4))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected unscoped list for capability-free type, got %d", len(items))
	}

	if _, err := ctrl.Deactivate(context.Background(), tenantPrincipal(7, 4), 1); err == nil {
		t.Fatalf("expected deactivate to fail for a type without soft delete")
	}
}

// recordingAuthorizer allows everything and remembers the verbs requested.
type recordingAuthorizer struct{ actions []authz.Action }

func (a *recordingAuthorizer) Decide(ctx context.Context, p *authz.Principal, module string, action authz.Action) authz.Decision {
	a.actions = append(a.actions, action)
	return authz.Allow
}

func TestOperationsRequestCanonicalVerbs(t *testing.T) {
	store := newWidgetStore()
	t4 := int64(4)
	store.items[1] = &widget{ID: 1, TenantID: &t4, Active: true}
	authorizer := &recordingAuthorizer{}
	ctrl := lifecycle.New[*widget]("Widget", authorizer, store, &memRecorder{}, nil)

	p := tenantPrincipal(7, 4)
	ctx := context.Background()
	if _, err := ctrl.List(ctx, p); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := ctrl.Get(ctx, p, 1); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := ctrl.Create(ctx, p, &widget{Name: "a"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := ctrl.Update(ctx, p, &widget{ID: 1, Name: "b"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := ctrl.Deactivate(ctx, p, 1); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := ctrl.Activate(ctx, p, 1); err != nil {
		t.Fatalf("activate: %v", err)
	}

	want := []authz.Action{
		authz.ActionView,   // list
		authz.ActionView,   // retrieve
		authz.ActionCreate, // create
		authz.ActionUpdate, // update
		authz.ActionDelete, // destroy (deactivate)
		authz.ActionUpdate, // partial_update (activate)
	}
	if len(authorizer.actions) != len(want) {
		t.Fatalf("expected %d policy checks, got %d", len(want), len(authorizer.actions))
	}
	for i, action := range want {
		if authorizer.actions[i] != action {
			t.Fatalf("check %d: expected %s, got %s", i, action, authorizer.actions[i])
		}
	}
}

func TestBeforeCreateHookAborts(t *testing.T) {
	store := newWidgetStore()
	recorder := &memRecorder{}
	hookErr := errors.New("rejected")
	ctrl := lifecycle.New[*widget]("Widget", allowAll{}, store, recorder, nil).WithHooks(lifecycle.Hooks[*widget]{
		BeforeCreate: func(ctx context.Context, p *authz.Principal, item *widget) error {
			return hookErr
		},
	})

	_, err := ctrl.Create(context.Background(), tenantPrincipal(7, 4), &widget{Name: "a"})
	if !errors.Is(err, hookErr) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if store.inserts != 0 || len(recorder.entries) != 0 {
		t.Fatalf("expected no mutation or audit after hook abort")
	}
}
