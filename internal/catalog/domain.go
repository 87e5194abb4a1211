// Package catalog holds the product and brand resources managed through
// the generic lifecycle controller.
package catalog

import "time"

// Module names guarding the catalog endpoints.
const (
	ProductModule = "Producto"
	BrandModule   = "Marca"
)

// Product is a sellable item scoped to one company.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TenantID    *int64    `json:"tenant_id,omitempty"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ResourceID implements lifecycle.Resource.
func (p *Product) ResourceID() int64 { return p.ID }

// TenantRef implements lifecycle.TenantScoped.
func (p *Product) TenantRef() *int64 { return p.TenantID }

// AssignTenant implements lifecycle.TenantScoped.
func (p *Product) AssignTenant(id int64) { p.TenantID = &id }

// IsActive implements lifecycle.SoftDeletable.
func (p *Product) IsActive() bool { return p.Active }

// SetActive implements lifecycle.SoftDeletable.
func (p *Product) SetActive(active bool) { p.Active = active }

// Brand is a global catalog dimension: unique by name, shared across
// companies, soft-deletable but not tenant-scoped.
type Brand struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResourceID implements lifecycle.Resource.
func (b *Brand) ResourceID() int64 { return b.ID }

// IsActive implements lifecycle.SoftDeletable.
func (b *Brand) IsActive() bool { return b.Active }

// SetActive implements lifecycle.SoftDeletable.
func (b *Brand) SetActive(active bool) { b.Active = active }
