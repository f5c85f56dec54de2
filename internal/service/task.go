package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teresa-solution/workspace-service/internal/apperr"
	"github.com/teresa-solution/workspace-service/internal/auth"
	"github.com/teresa-solution/workspace-service/internal/model"
	"github.com/teresa-solution/workspace-service/internal/store"
)

// TaskStore is the part of the store used for task management.
type TaskStore interface {
	GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error)
	UserInTenant(ctx context.Context, userID, tenantID uuid.UUID) (bool, error)
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, id uuid.UUID) (*model.Task, error)
	ListTasks(ctx context.Context, projectID uuid.UUID) ([]model.TaskListItem, error)
	UpdateTaskStatus(ctx context.Context, id, tenantID uuid.UUID, status string) error
	UpdateTask(ctx context.Context, task *model.Task) error
}

type TaskService struct {
	store TaskStore
}

func NewTaskService(store TaskStore) *TaskService {
	return &TaskService{store: store}
}

// project loads a project and checks it against the caller's scope.
func (s *TaskService) project(ctx context.Context, rc auth.RequestContext, id uuid.UUID) (*model.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, internal(ctx, err, "Failed to fetch project")
	}
	if project == nil {
		return nil, apperr.Missing("Project not found")
	}
	if !rc.Scope().Allows(project.TenantID) {
		return nil, apperr.Denied("Project does not belong to your tenant")
	}
	return project, nil
}

// task loads a task and checks its stored tenant against the caller's scope.
func (s *TaskService) task(ctx context.Context, rc auth.RequestContext, id uuid.UUID) (*model.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, internal(ctx, err, "Failed to fetch task")
	}
	if task == nil {
		return nil, apperr.Missing("Task not found")
	}
	if !rc.Scope().Allows(task.TenantID) {
		return nil, apperr.Denied("Unauthorized access")
	}
	return task, nil
}

// assignee parses raw and checks that the user is a member of tenantID.
// An empty raw means unassigned.
func (s *TaskService) assignee(ctx context.Context, raw string, tenantID uuid.UUID) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.Invalid("Invalid assignee id")
	}
	ok, err := s.store.UserInTenant(ctx, id, tenantID)
	if err != nil {
		return nil, internal(ctx, err, "Failed to verify assignee")
	}
	if !ok {
		return nil, apperr.Invalid("Assigned user does not belong to tenant")
	}
	return &id, nil
}

// parseDueDate accepts a calendar date or an RFC 3339 timestamp and keeps
// only the date. An empty raw means no due date.
func parseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d, nil
		}
	}
	return nil, apperr.Invalid("Invalid due date")
}

type CreateTaskRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    model.Priority `json:"priority"`
	AssignedTo  string         `json:"assignedTo"`
	DueDate     string         `json:"dueDate"`
}

// Create adds a task under projectID. The task's tenant is always the
// project's tenant.
func (s *TaskService) Create(ctx context.Context, rc auth.RequestContext, projectID uuid.UUID, req CreateTaskRequest) (*model.Task, error) {
	if blank(req.Title) {
		return nil, apperr.Invalid("Task title is required")
	}
	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperr.Invalid("Invalid priority")
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	project, err := s.project(ctx, rc, projectID)
	if err != nil {
		return nil, err
	}
	assignedTo, err := s.assignee(ctx, req.AssignedTo, project.TenantID)
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		ProjectID:   project.ID,
		TenantID:    project.TenantID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      model.TaskStatusTodo,
		Priority:    priority,
		AssignedTo:  assignedTo,
		DueDate:     dueDate,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, internal(ctx, err, "Failed to create task")
	}
	return task, nil
}

// List returns the tasks of projectID ordered by priority, then due date
// with undated tasks last.
func (s *TaskService) List(ctx context.Context, rc auth.RequestContext, projectID uuid.UUID) ([]model.TaskListItem, error) {
	project, err := s.project(ctx, rc, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, project.ID)
	if err != nil {
		return nil, internal(ctx, err, "Failed to fetch tasks")
	}
	return tasks, nil
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}

func (s *TaskService) UpdateStatus(ctx context.Context, rc auth.RequestContext, id uuid.UUID, req UpdateTaskStatusRequest) (*model.Task, error) {
	status := strings.TrimSpace(req.Status)
	if status == "" {
		return nil, apperr.Invalid("Status is required")
	}
	if !model.ValidTaskStatus(status) {
		return nil, apperr.Invalid("Invalid task status")
	}

	task, err := s.task(ctx, rc, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateTaskStatus(ctx, task.ID, task.TenantID, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Missing("Task not found")
		}
		return nil, internal(ctx, err, "Failed to update task status")
	}
	task.Status = status
	return task, nil
}

// UpdateTaskRequest merges title, description, status and priority.
// AssignedTo and DueDate always replace the stored values: leaving them out
// clears them.
type UpdateTaskRequest struct {
	Title       model.Optional[string]         `json:"title"`
	Description model.Optional[string]         `json:"description"`
	Status      model.Optional[string]         `json:"status"`
	Priority    model.Optional[model.Priority] `json:"priority"`
	AssignedTo  model.Optional[string]         `json:"assignedTo"`
	DueDate     model.Optional[string]         `json:"dueDate"`
}

func (s *TaskService) Update(ctx context.Context, rc auth.RequestContext, id uuid.UUID, req UpdateTaskRequest) (*model.Task, error) {
	task, err := s.task(ctx, rc, id)
	if err != nil {
		return nil, err
	}

	if req.Title.Present() && blank(req.Title.Value) {
		return nil, apperr.Invalid("Task title cannot be empty")
	}
	if req.Status.Present() && !model.ValidTaskStatus(req.Status.Value) {
		return nil, apperr.Invalid("Invalid task status")
	}
	if req.Priority.Present() && !req.Priority.Value.Valid() {
		return nil, apperr.Invalid("Invalid priority")
	}
	dueDate, err := parseDueDate(req.DueDate.Value)
	if err != nil {
		return nil, err
	}
	assignedTo, err := s.assignee(ctx, req.AssignedTo.Value, task.TenantID)
	if err != nil {
		return nil, err
	}

	task.Title = strings.TrimSpace(req.Title.Merge(task.Title))
	task.Description = req.Description.Merge(task.Description)
	task.Status = req.Status.Merge(task.Status)
	task.Priority = req.Priority.Merge(task.Priority)
	task.AssignedTo = assignedTo
	task.DueDate = dueDate

	if err := s.store.UpdateTask(ctx, task); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Missing("Task not found")
		}
		return nil, internal(ctx, err, "Failed to update task")
	}
	return task, nil
}
