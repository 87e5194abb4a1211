package tenant_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/comercio-cloud/comercio/internal/audit"
	"github.com/comercio-cloud/comercio/internal/authz"
	"github.com/comercio-cloud/comercio/internal/lifecycle"
	"github.com/comercio-cloud/comercio/internal/shared"
	"github.com/comercio-cloud/comercio/internal/tenant"
	_ "github.com/comercio-cloud/comercio/testing"
)

// roleRepo overrides role creation and the two policy lookups; nothing else
// on the embedded interface is reached in these tests.
type roleRepo struct {
	authz.Repository
	created []authz.Role
	dupOn   string
}

func (r *roleRepo) GetModuleByName(ctx context.Context, name string) (*authz.Module, error) {
	return nil, shared.ErrNotFound
}

func (r *roleRepo) GetPermission(ctx context.Context, roleID, moduleID int64) (*authz.Permission, error) {
	return nil, shared.ErrNotFound
}

func (r *roleRepo) CreateRole(ctx context.Context, role authz.Role) (*authz.Role, error) {
	if role.Name == r.dupOn {
		return nil, shared.ErrDuplicate
	}
	role.ID = int64(len(r.created) + 1)
	r.created = append(r.created, role)
	return &role, nil
}

type companyStore struct {
	items  map[int64]*tenant.Company
	nextID int64
}

func newCompanyStore() *companyStore {
	return &companyStore{items: make(map[int64]*tenant.Company)}
}

func (s *companyStore) List(ctx context.Context, scope lifecycle.Scope) ([]*tenant.Company, error) {
	var out []*tenant.Company
	for _, c := range s.items {
		if scope.ActiveOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *companyStore) Get(ctx context.Context, id int64, scope lifecycle.Scope) (*tenant.Company, error) {
	c, ok := s.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (s *companyStore) Insert(ctx context.Context, c *tenant.Company) (*tenant.Company, error) {
	s.nextID++
	c.ID = s.nextID
	s.items[c.ID] = c
	return c, nil
}

func (s *companyStore) Update(ctx context.Context, c *tenant.Company) (*tenant.Company, error) {
	if _, ok := s.items[c.ID]; !ok {
		return nil, shared.ErrNotFound
	}
	s.items[c.ID] = c
	return c, nil
}

type nopRecorder struct{ entries []audit.Entry }

func (r *nopRecorder) Record(ctx context.Context, entry audit.Entry) (audit.Entry, error) {
	r.entries = append(r.entries, entry)
	return entry, nil
}

func superadmin() *authz.Principal {
	return &authz.Principal{UserID: 1, Role: &authz.Role{ID: 1, Name: authz.AdminRoleName, Superadmin: true}}
}

func newTenantService(repo *roleRepo, store *companyStore, recorder *nopRecorder) *tenant.Service {
	logger := slog.New(slog.DiscardHandler)
	roles := authz.NewService(repo, authz.NewPolicyCache(nil, 0), logger)
	ctrl := lifecycle.New[*tenant.Company](tenant.ModuleName, roles, store, recorder, logger)
	return tenant.NewService(ctrl, roles, logger)
}

func TestOnboardSeedsBaselineRoles(t *testing.T) {
	repo := &roleRepo{}
	store := newCompanyStore()
	recorder := &nopRecorder{}
	svc := newTenantService(repo, store, recorder)

	created, err := svc.Onboard(context.Background(), superadmin(), &tenant.Company{Name: "Acme"})
	if err != nil {
		t.Fatalf("onboard: %v", err)
	}
	if created.ID == 0 || !created.Active {
		t.Fatalf("expected persisted active company, got %+v", created)
	}

	if len(repo.created) != 3 {
		t.Fatalf("expected three baseline roles, got %d", len(repo.created))
	}
	names := map[string]bool{}
	for _, role := range repo.created {
		names[role.Name] = true
		if role.TenantID == nil || *role.TenantID != created.ID {
			t.Fatalf("role %s not bound to new company: %+v", role.Name, role)
		}
		if role.Superadmin != (role.Name == authz.AdminRoleName) {
			t.Fatalf("unexpected superadmin flag on %s", role.Name)
		}
	}
	for _, want := range []string{authz.AdminRoleName, "SALES_AGENT", "CUSTOMER"} {
		if !names[want] {
			t.Fatalf("missing baseline role %s", want)
		}
	}

	if len(recorder.entries) != 1 || recorder.entries[0].Action != audit.ActionCreate {
		t.Fatalf("expected one CREAR entry, got %+v", recorder.entries)
	}
}

func TestOnboardToleratesDuplicateRoles(t *testing.T) {
	repo := &roleRepo{dupOn: "SALES_AGENT"}
	svc := newTenantService(repo, newCompanyStore(), &nopRecorder{})

	created, err := svc.Onboard(context.Background(), superadmin(), &tenant.Company{Name: "Acme"})
	if err != nil {
		t.Fatalf("onboard with duplicate role: %v", err)
	}
	if created == nil || created.ID == 0 {
		t.Fatalf("expected company despite duplicate role")
	}
	if len(repo.created) != 2 {
		t.Fatalf("expected the remaining roles seeded, got %d", len(repo.created))
	}
}

func TestOnboardDeniedLeavesNothingBehind(t *testing.T) {
	repo := &roleRepo{}
	store := newCompanyStore()
	svc := newTenantService(repo, store, &nopRecorder{})

	agent := &authz.Principal{UserID: 2, Role: &authz.Role{ID: 9, Name: "SALES_AGENT"}}
	if _, err := svc.Onboard(context.Background(), agent, &tenant.Company{Name: "Acme"}); err == nil {
		t.Fatalf("expected deny for non-admin onboarding")
	}
	if len(store.items) != 0 || len(repo.created) != 0 {
		t.Fatalf("expected no company or roles after deny")
	}
}
