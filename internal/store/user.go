package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/teresa-solution/workspace-service/internal/model"
	"github.com/teresa-solution/workspace-service/internal/quota"
)

const userColumns = `id, tenant_id, email, password_hash, full_name, role, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.TenantID, &user.Email, &user.PasswordHash, &user.FullName,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func insertUser(ctx context.Context, tx pgx.Tx, user *model.User) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO users (id, tenant_id, email, password_hash, full_name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.TenantID, user.Email, user.PasswordHash, user.FullName,
		string(user.Role), user.IsActive, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err, "users_tenant_email_key") {
		return ErrEmailTaken
	}
	return err
}

// GetUserByID retrieves a user by ID regardless of tenant
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// GetUserByEmail retrieves a user of tenantID by email
func (s *Store) GetUserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND tenant_id = $2`
	return scanUser(s.pool.QueryRow(ctx, query, email, tenantID))
}

// GetUserWithTenant retrieves a user together with its tenant, if any
func (s *Store) GetUserWithTenant(ctx context.Context, id uuid.UUID) (*model.UserWithTenant, error) {
	query := `
		SELECT u.id, u.tenant_id, u.email, u.password_hash, u.full_name, u.role, u.is_active, u.created_at, u.updated_at,
		       t.id, t.name, t.subdomain, t.status, t.subscription_plan, t.max_users, t.max_projects, t.created_at, t.updated_at
		FROM users u
		LEFT JOIN tenants t ON u.tenant_id = t.id
		WHERE u.id = $1`

	var (
		out model.UserWithTenant
		t   struct {
			ID                    *uuid.UUID
			Name, Subdomain       *string
			Status, Plan          *string
			MaxUsers, MaxProjects *int
			CreatedAt, UpdatedAt  *time.Time
		}
	)
	u := &out.User
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
		&t.ID, &t.Name, &t.Subdomain, &t.Status, &t.Plan, &t.MaxUsers, &t.MaxProjects, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if t.ID != nil {
		out.Tenant = &model.Tenant{
			ID:               *t.ID,
			Name:             *t.Name,
			Subdomain:        *t.Subdomain,
			Status:           *t.Status,
			SubscriptionPlan: *t.Plan,
			MaxUsers:         *t.MaxUsers,
			MaxProjects:      *t.MaxProjects,
			CreatedAt:        *t.CreatedAt,
			UpdatedAt:        *t.UpdatedAt,
		}
	}
	return &out, nil
}

// UserInTenant reports whether userID is a member of tenantID
func (s *Store) UserInTenant(ctx context.Context, userID, tenantID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND tenant_id = $2)`,
		userID, tenantID,
	).Scan(&exists)
	return exists, err
}

// ListUsers returns the users of tenantID, newest first
func (s *Store) ListUsers(ctx context.Context, tenantID uuid.UUID) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE tenant_id = $1 ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// CreateUser inserts user under its tenant if the tenant's user quota allows
// it. The check and the insert share one transaction holding the tenant lock.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if user.TenantID == nil {
		return errors.New("user tenant is required")
	}
	now := time.Now().UTC()
	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := quota.Enforce(ctx, txUsage{tx: tx}, *user.TenantID, quota.Users); err != nil {
			return err
		}
		return insertUser(ctx, tx, user)
	})
}

// UpdateUser writes full name, role and active flag of user
func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET full_name = $2, role = $3, is_active = $4, updated_at = now()
		WHERE id = $1 AND tenant_id IS NOT DISTINCT FROM $5
		RETURNING updated_at`
	err := s.pool.QueryRow(ctx, query,
		user.ID, user.FullName, string(user.Role), user.IsActive, user.TenantID,
	).Scan(&user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// DeleteUser unassigns the user's tasks and deletes the user, both limited to
// tenantID and both in one transaction. ErrNotFound leaves everything untouched.
func (s *Store) DeleteUser(ctx context.Context, id, tenantID uuid.UUID) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE tasks SET assigned_to = NULL, updated_at = now() WHERE assigned_to = $1 AND tenant_id = $2`,
			id, tenantID,
		)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1 AND tenant_id = $2`, id, tenantID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}
