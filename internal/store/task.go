package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/teresa-solution/workspace-service/internal/model"
)

const taskColumns = `id, project_id, tenant_id, title, description, status, priority, assigned_to, due_date, created_at, updated_at`

// CreateTask inserts task. The caller sets TenantID from the owning project.
func (s *Store) CreateTask(ctx context.Context, task *model.Task) error {
	now := time.Now().UTC()
	task.ID = uuid.New()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, project_id, tenant_id, title, description, status, priority, assigned_to, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		task.ID, task.ProjectID, task.TenantID, task.Title, task.Description, task.Status,
		string(task.Priority), task.AssignedTo, task.DueDate, task.CreatedAt, task.UpdatedAt,
	)
	return err
}

// GetTask retrieves a task by ID
func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task := &model.Task{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&task.ID, &task.ProjectID, &task.TenantID, &task.Title, &task.Description, &task.Status,
		&task.Priority, &task.AssignedTo, &task.DueDate, &task.CreatedAt, &task.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns the tasks of a project ordered by priority (high first),
// then due date ascending with undated tasks last, then creation time.
func (s *Store) ListTasks(ctx context.Context, projectID uuid.UUID) ([]model.TaskListItem, error) {
	query := `
		SELECT t.id, t.project_id, t.tenant_id, t.title, t.description, t.status, t.priority,
		       t.assigned_to, t.due_date, t.created_at, t.updated_at,
		       u.full_name
		FROM tasks t
		LEFT JOIN users u ON t.assigned_to = u.id
		WHERE t.project_id = $1
		ORDER BY CASE t.priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END DESC,
		         t.due_date ASC NULLS LAST,
		         t.created_at ASC`
	rows, err := s.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []model.TaskListItem{}
	for rows.Next() {
		var t model.TaskListItem
		if err := rows.Scan(
			&t.ID, &t.ProjectID, &t.TenantID, &t.Title, &t.Description, &t.Status, &t.Priority,
			&t.AssignedTo, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
			&t.AssigneeName,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTaskStatus sets the status of a task of tenantID
func (s *Store) UpdateTaskStatus(ctx context.Context, id, tenantID uuid.UUID, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = $2, updated_at = now() WHERE id = $1 AND tenant_id = $3`,
		id, status, tenantID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTask writes every mutable column of task
func (s *Store) UpdateTask(ctx context.Context, task *model.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5, assigned_to = $6, due_date = $7, updated_at = now()
		WHERE id = $1 AND tenant_id = $8
		RETURNING updated_at`
	err := s.pool.QueryRow(ctx, query,
		task.ID, task.Title, task.Description, task.Status, string(task.Priority),
		task.AssignedTo, task.DueDate, task.TenantID,
	).Scan(&task.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
