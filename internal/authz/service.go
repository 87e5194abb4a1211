package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/comercio-cloud/comercio/internal/shared"
)

// AdminRoleName is the conventional name for tenant administrator roles.
// Creating a role with this name sets the superadmin capability so policy
// data seeded by name keeps its historical meaning, but the decision
// procedure itself only ever consults the flag.
const AdminRoleName = "ADMIN"

// Service orchestrates the policy store and implements the authorization
// decision procedure.
type Service struct {
	repo   Repository
	cache  *PolicyCache
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, cache *PolicyCache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Decide evaluates whether the principal may perform action on the named
// module. Every branch fails closed: absence of data is a deny, never an
// allow, with the superadmin bypass as the single exception.
func (s *Service) Decide(ctx context.Context, p *Principal, moduleName string, action Action) Decision {
	if !p.Authenticated() {
		return Deny(ReasonUnauthenticated)
	}

	if p.Role != nil && p.Role.Superadmin {
		return Allow
	}

	if moduleName == "" || p.Role == nil || !action.Valid() {
		return Deny(ReasonMissingPolicy)
	}

	entry, err := s.lookupPolicy(ctx, p.Role.ID, moduleName)
	if err != nil {
		// Store failures are indistinguishable from missing policy on
		// purpose; a broken policy store must never grant access.
		if s.logger != nil {
			s.logger.Error("authz policy lookup", slog.String("module", moduleName), slog.Any("error", err))
		}
		return Deny(ReasonInsufficient)
	}
	if entry.Module == nil {
		return Deny(ReasonMissingPolicy)
	}
	if entry.Permission == nil || !entry.Permission.Allows(action) {
		return Deny(ReasonInsufficient)
	}
	return Allow
}

// Authorize is the error-returning form of Decide for callers that only
// need the short-circuit.
func (s *Service) Authorize(ctx context.Context, p *Principal, moduleName string, action Action) error {
	return s.Decide(ctx, p, moduleName, action).Err()
}

func (s *Service) lookupPolicy(ctx context.Context, roleID int64, moduleName string) (PolicyEntry, error) {
	return s.cache.Lookup(ctx, roleID, moduleName, func(ctx context.Context) (PolicyEntry, error) {
		module, err := s.repo.GetModuleByName(ctx, moduleName)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return PolicyEntry{}, nil
			}
			return PolicyEntry{}, err
		}
		perm, err := s.repo.GetPermission(ctx, roleID, module.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return PolicyEntry{Module: module}, nil
			}
			return PolicyEntry{}, err
		}
		return PolicyEntry{Module: module, Permission: perm}, nil
	})
}

// ============================================================================
// ROLE ADMINISTRATION
// ============================================================================

// ListRoles returns the roles visible to a tenant.
func (s *Service) ListRoles(ctx context.Context, tenantID *int64) ([]Role, error) {
	return s.repo.ListRoles(ctx, tenantID)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (*Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role. Roles named ADMIN receive the superadmin
// capability at creation time.
func (s *Service) CreateRole(ctx context.Context, name, description string, tenantID *int64) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	return s.repo.CreateRole(ctx, Role{
		Name:        name,
		Description: strings.TrimSpace(description),
		TenantID:    tenantID,
		Superadmin:  name == AdminRoleName,
	})
}

// UpdateRole updates name and description of an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name required", shared.ErrValidation)
	}
	role, err := s.repo.UpdateRole(ctx, Role{ID: id, Name: name, Description: strings.TrimSpace(description)})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateRole(ctx, id)
	return role, nil
}

// DeleteRole removes a role and its permission rows.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateRole(ctx, id)
	return nil
}

// ============================================================================
// MODULE ADMINISTRATION
// ============================================================================

// ListModules returns all registered modules.
func (s *Service) ListModules(ctx context.Context) ([]Module, error) {
	return s.repo.ListModules(ctx)
}

// GetModule fetches a module by ID.
func (s *Service) GetModule(ctx context.Context, id int64) (*Module, error) {
	return s.repo.GetModule(ctx, id)
}

// CreateModule registers a protected resource type.
func (s *Service) CreateModule(ctx context.Context, name, description string, isActive bool) (*Module, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: module name required", shared.ErrValidation)
	}
	module, err := s.repo.CreateModule(ctx, Module{Name: name, Description: strings.TrimSpace(description), IsActive: isActive})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateAll(ctx)
	return module, nil
}

// UpdateModule updates a module registration.
func (s *Service) UpdateModule(ctx context.Context, id int64, name, description string, isActive bool) (*Module, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: module name required", shared.ErrValidation)
	}
	module, err := s.repo.UpdateModule(ctx, Module{ID: id, Name: name, Description: strings.TrimSpace(description), IsActive: isActive})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateAll(ctx)
	return module, nil
}

// DeleteModule removes a module registration and its permission rows.
func (s *Service) DeleteModule(ctx context.Context, id int64) error {
	if err := s.repo.DeleteModule(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateAll(ctx)
	return nil
}

// ============================================================================
// PERMISSION ADMINISTRATION
// ============================================================================

// ListPermissions lists the matrix rows for a role.
func (s *Service) ListPermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	return s.repo.ListPermissions(ctx, roleID)
}

// SetPermission inserts or replaces the matrix entry for a (role, module)
// pair. The uniqueness invariant is enforced by upsert, never by a second
// live row.
func (s *Service) SetPermission(ctx context.Context, perm Permission) (*Permission, error) {
	if perm.RoleID <= 0 || perm.ModuleID <= 0 {
		return nil, fmt.Errorf("%w: role and module required", shared.ErrValidation)
	}
	if _, err := s.repo.GetRole(ctx, perm.RoleID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetModule(ctx, perm.ModuleID); err != nil {
		return nil, err
	}
	saved, err := s.repo.UpsertPermission(ctx, perm)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateRole(ctx, perm.RoleID)
	return saved, nil
}

// RemovePermission deletes a matrix entry.
func (s *Service) RemovePermission(ctx context.Context, id int64) error {
	perm, err := s.repo.DeletePermission(ctx, id)
	if err != nil {
		return err
	}
	s.cache.InvalidateRole(ctx, perm.RoleID)
	return nil
}
