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

const projectColumns = `id, tenant_id, name, description, status, created_by, created_at, updated_at`

// CreateProject inserts project if the tenant's project quota allows it
func (s *Store) CreateProject(ctx context.Context, project *model.Project) error {
	now := time.Now().UTC()
	project.ID = uuid.New()
	project.CreatedAt = now
	project.UpdatedAt = now

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := quota.Enforce(ctx, txUsage{tx: tx}, project.TenantID, quota.Projects); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO projects (id, tenant_id, name, description, status, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			project.ID, project.TenantID, project.Name, project.Description, project.Status,
			project.CreatedBy, project.CreatedAt, project.UpdatedAt,
		)
		return err
	})
}

// GetProject retrieves a project by ID
func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	project := &model.Project{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&project.ID, &project.TenantID, &project.Name, &project.Description, &project.Status,
		&project.CreatedBy, &project.CreatedAt, &project.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return project, nil
}

// ListProjects returns projects newest first with the creator's name. A nil
// tenantID lists every tenant's projects.
func (s *Store) ListProjects(ctx context.Context, tenantID *uuid.UUID) ([]model.ProjectListItem, error) {
	query := `
		SELECT p.id, p.tenant_id, p.name, p.description, p.status, p.created_by, p.created_at, p.updated_at,
		       u.full_name
		FROM projects p
		LEFT JOIN users u ON p.created_by = u.id
		WHERE $1::uuid IS NULL OR p.tenant_id = $1
		ORDER BY p.created_at DESC`
	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.ProjectListItem{}
	for rows.Next() {
		var p model.ProjectListItem
		if err := rows.Scan(
			&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
			&p.CreatorName,
		); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject writes name, description and status of project
func (s *Store) UpdateProject(ctx context.Context, project *model.Project) error {
	query := `
		UPDATE projects
		SET name = $2, description = $3, status = $4, updated_at = now()
		WHERE id = $1 AND tenant_id = $5
		RETURNING updated_at`
	err := s.pool.QueryRow(ctx, query,
		project.ID, project.Name, project.Description, project.Status, project.TenantID,
	).Scan(&project.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// DeleteProject hard deletes a project of tenantID; its tasks go with it
func (s *Store) DeleteProject(ctx context.Context, id, tenantID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
