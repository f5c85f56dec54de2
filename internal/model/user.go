package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is one of a fixed set of user roles.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleTenantAdmin Role = "tenant_admin"
	RoleUser        Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleTenantAdmin, RoleUser:
		return true
	}
	return false
}

// User represents the users table. TenantID is nil only for super admins.
type User struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     *uuid.UUID `json:"tenantId"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"fullName"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// BelongsTo reports whether the user is a member of tenantID.
func (u *User) BelongsTo(tenantID uuid.UUID) bool {
	return u.TenantID != nil && *u.TenantID == tenantID
}

// Profile is the public view of a user. It never carries the password hash.
type Profile struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName"`
	Role      Role       `json:"role"`
	TenantID  *uuid.UUID `json:"tenantId"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Profile returns the public view of u.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		TenantID:  u.TenantID,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// UserWithTenant is a user joined with its tenant, as returned for /auth/me.
type UserWithTenant struct {
	User   User
	Tenant *Tenant
}
