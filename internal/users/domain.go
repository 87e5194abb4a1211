// Package users manages user accounts and resolves the request principal.
package users

import "time"

// ModuleName is the protected module guarding user endpoints.
const ModuleName = "User"

// User is an account. PasswordHash briefly holds the raw password between
// request binding and the hashing hook; it never serializes.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone,omitempty"`
	RoleID       *int64    `json:"role_id,omitempty"`
	TenantID     *int64    `json:"tenant_id,omitempty"`
	Active       bool      `json:"is_active"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ResourceID implements lifecycle.Resource.
func (u *User) ResourceID() int64 { return u.ID }

// TenantRef implements lifecycle.TenantScoped.
func (u *User) TenantRef() *int64 { return u.TenantID }

// AssignTenant implements lifecycle.TenantScoped.
func (u *User) AssignTenant(id int64) { u.TenantID = &id }

// IsActive implements lifecycle.SoftDeletable.
func (u *User) IsActive() bool { return u.Active }

// SetActive implements lifecycle.SoftDeletable.
func (u *User) SetActive(active bool) { u.Active = active }
