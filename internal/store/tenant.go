package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/teresa-solution/workspace-service/internal/model"
)

const tenantColumns = `id, name, subdomain, status, subscription_plan, max_users, max_projects, created_at, updated_at`

func scanTenant(row pgx.Row) (*model.Tenant, error) {
	tenant := &model.Tenant{}
	err := row.Scan(
		&tenant.ID, &tenant.Name, &tenant.Subdomain, &tenant.Status, &tenant.SubscriptionPlan,
		&tenant.MaxUsers, &tenant.MaxProjects, &tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// GetTenantByID retrieves a tenant by ID
func (s *Store) GetTenantByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return scanTenant(s.pool.QueryRow(ctx, query, id))
}

// GetTenantBySubdomain retrieves a tenant by subdomain
func (s *Store) GetTenantBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE subdomain = $1`
	return scanTenant(s.pool.QueryRow(ctx, query, subdomain))
}

// RegisterTenant inserts a tenant and its first admin in one transaction.
// Neither row becomes visible unless both inserts succeed.
func (s *Store) RegisterTenant(ctx context.Context, tenant *model.Tenant, admin *model.User) error {
	now := time.Now().UTC()
	tenant.ID = uuid.New()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	admin.ID = uuid.New()
	admin.TenantID = &tenant.ID
	admin.CreatedAt = now
	admin.UpdatedAt = now

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tenants WHERE subdomain = $1)`, tenant.Subdomain).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrSubdomainTaken
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO tenants (id, name, subdomain, status, subscription_plan, max_users, max_projects, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			tenant.ID, tenant.Name, tenant.Subdomain, tenant.Status, tenant.SubscriptionPlan,
			tenant.MaxUsers, tenant.MaxProjects, tenant.CreatedAt, tenant.UpdatedAt,
		)
		if err != nil {
			return err
		}

		return insertUser(ctx, tx, admin)
	})
	if isUniqueViolation(err, "tenants_subdomain_key") {
		return ErrSubdomainTaken
	}
	return err
}
