package model

import (
	"time"

	"github.com/google/uuid"
)

// Tenant statuses. Only active tenants accept logins.
const (
	TenantStatusActive   = "active"
	TenantStatusInactive = "inactive"
)

// Starter plan applied at registration.
const (
	PlanFree            = "free"
	FreePlanMaxUsers    = 5
	FreePlanMaxProjects = 3
)

// Tenant represents the tenants table
type Tenant struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Subdomain        string    `json:"subdomain"`
	Status           string    `json:"status"`
	SubscriptionPlan string    `json:"subscriptionPlan"`
	MaxUsers         int       `json:"maxUsers"`
	MaxProjects      int       `json:"maxProjects"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// IsActive reports whether members of the tenant may log in.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}
