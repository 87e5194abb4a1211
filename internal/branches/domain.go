// Package branches manages company branch offices (sucursales).
package branches

import "time"

// ModuleName is the protected module guarding branch endpoints.
const ModuleName = "Sucursal"

// Branch is a physical location belonging to one company.
type Branch struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	TenantID  *int64    `json:"tenant_id,omitempty"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResourceID implements lifecycle.Resource.
func (b *Branch) ResourceID() int64 { return b.ID }

// TenantRef implements lifecycle.TenantScoped.
func (b *Branch) TenantRef() *int64 { return b.TenantID }

// AssignTenant implements lifecycle.TenantScoped.
func (b *Branch) AssignTenant(id int64) { b.TenantID = &id }

// IsActive implements lifecycle.SoftDeletable.
func (b *Branch) IsActive() bool { return b.Active }

// SetActive implements lifecycle.SoftDeletable.
func (b *Branch) SetActive(active bool) { b.Active = active }
