// Package tenant manages companies, the tenancy root every scoped
// resource hangs off.
package tenant

import "time"

// ModuleName is the protected module guarding company endpoints.
const ModuleName = "Empresa"

// Company is one tenant. It is soft-deletable but not tenant-scoped:
// companies are the tenants, their rows are visible across the system.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResourceID implements lifecycle.Resource.
func (c *Company) ResourceID() int64 { return c.ID }

// IsActive implements lifecycle.SoftDeletable.
func (c *Company) IsActive() bool { return c.Active }

// SetActive implements lifecycle.SoftDeletable.
func (c *Company) SetActive(active bool) { c.Active = active }
