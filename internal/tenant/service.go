package tenant

import (
	"context"
	"errors"
	"log/slog"

	"github.com/comercio-cloud/comercio/internal/authz"
	"github.com/comercio-cloud/comercio/internal/lifecycle"
	"github.com/comercio-cloud/comercio/internal/shared"
)

// baselineRoles are created for every new company so it starts with a
// usable role split instead of an empty policy matrix.
var baselineRoles = []struct {
	name        string
	description string
}{
	{authz.AdminRoleName, "Company administrator"},
	{"SALES_AGENT", "Sales agent"},
	{"CUSTOMER", "Customer"},
}

// Service handles company onboarding on top of the generic controller.
type Service struct {
	controller *lifecycle.Controller[*Company]
	roles      *authz.Service
	logger     *slog.Logger
}

// NewService constructs a Service.
func NewService(controller *lifecycle.Controller[*Company], roles *authz.Service, logger *slog.Logger) *Service {
	return &Service{controller: controller, roles: roles, logger: logger}
}

// Controller exposes the lifecycle controller for route wiring.
func (s *Service) Controller() *lifecycle.Controller[*Company] {
	return s.controller
}

// Onboard creates a company and seeds its baseline roles. Role seeding
// tolerates duplicates so a retried onboarding converges.
func (s *Service) Onboard(ctx context.Context, p *authz.Principal, company *Company) (*Company, error) {
	created, err := s.controller.Create(ctx, p, company)
	if err != nil {
		return nil, err
	}
	tenantID := created.ID
	for _, role := range baselineRoles {
		if _, err := s.roles.CreateRole(ctx, role.name, role.description, &tenantID); err != nil {
			if errors.Is(err, shared.ErrDuplicate) {
				continue
			}
			s.logger.Error("seed baseline role",
				slog.Int64("company_id", tenantID),
				slog.String("role", role.name),
				slog.Any("error", err))
		}
	}
	return created, nil
}
