// Package quota enforces per-tenant caps on users and projects.
package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Resource is a capped, per-tenant resource kind.
type Resource string

const (
	Users    Resource = "users"
	Projects Resource = "projects"
)

// ErrExceeded is returned when a tenant is at or above its cap.
var ErrExceeded = errors.New("quota exceeded")

// Usage is the current count of live rows and the tenant's cap.
type Usage struct {
	Count int
	Limit int
}

// Allow fails with ErrExceeded when one more row would break the cap.
func (u Usage) Allow() error {
	if u.Count >= u.Limit {
		return ErrExceeded
	}
	return nil
}

// Reader reports usage for a tenant. Implementations used before an insert
// must hold whatever lock keeps the count stable until the insert commits.
type Reader interface {
	Usage(ctx context.Context, tenantID uuid.UUID, r Resource) (Usage, error)
}

// Enforce reads usage through rd and returns ErrExceeded when the tenant has
// no headroom left for r.
func Enforce(ctx context.Context, rd Reader, tenantID uuid.UUID, r Resource) error {
	u, err := rd.Usage(ctx, tenantID, r)
	if err != nil {
		return fmt.Errorf("read %s usage: %w", r, err)
	}
	return u.Allow()
}
