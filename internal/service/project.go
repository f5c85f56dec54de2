package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/teresa-solution/workspace-service/internal/apperr"
	"github.com/teresa-solution/workspace-service/internal/auth"
	"github.com/teresa-solution/workspace-service/internal/model"
	"github.com/teresa-solution/workspace-service/internal/monitoring"
	"github.com/teresa-solution/workspace-service/internal/quota"
	"github.com/teresa-solution/workspace-service/internal/store"
)

// ProjectStore is the part of the store used for project management.
type ProjectStore interface {
	CreateProject(ctx context.Context, project *model.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error)
	ListProjects(ctx context.Context, tenantID *uuid.UUID) ([]model.ProjectListItem, error)
	UpdateProject(ctx context.Context, project *model.Project) error
	DeleteProject(ctx context.Context, id, tenantID uuid.UUID) error
}

type ProjectService struct {
	store ProjectStore
}

func NewProjectService(store ProjectStore) *ProjectService {
	return &ProjectService{store: store}
}

type CreateProjectRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	TenantID    *uuid.UUID `json:"tenantId"`
}

func validStatusLabel(s string) bool {
	return !blank(s) && len(s) <= model.MaxStatusLen
}

// Create adds a project owned by the caller's tenant, subject to the
// tenant's project cap.
func (s *ProjectService) Create(ctx context.Context, rc auth.RequestContext, req CreateProjectRequest) (*model.Project, error) {
	if blank(req.Name) {
		return nil, apperr.Invalid("Project name is required")
	}
	status := model.ProjectStatusActive
	if req.Status != "" {
		status = strings.TrimSpace(req.Status)
	}
	if !validStatusLabel(status) {
		return nil, apperr.Invalid("Invalid project status")
	}
	tenantID, err := rc.Scope().Resolve(req.TenantID)
	if err != nil {
		return nil, err
	}

	creator := rc.UserID()
	project := &model.Project{
		TenantID:    tenantID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      status,
		CreatedBy:   &creator,
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		switch {
		case errors.Is(err, quota.ErrExceeded):
			monitoring.QuotaAlert(ctx, tenantID, string(quota.Projects))
			return nil, apperr.Denied("Project limit reached")
		case errors.Is(err, store.ErrNotFound):
			return nil, apperr.Missing("Tenant not found")
		}
		return nil, internal(ctx, err, "Failed to create project")
	}
	return project, nil
}

// List returns projects visible to the caller, newest first. filter only
// narrows the listing for unrestricted callers.
func (s *ProjectService) List(ctx context.Context, rc auth.RequestContext, filter *uuid.UUID) ([]model.ProjectListItem, error) {
	tenantID := filter
	if own, ok := rc.Scope().TenantID(); ok {
		tenantID = &own
	}
	projects, err := s.store.ListProjects(ctx, tenantID)
	if err != nil {
		return nil, internal(ctx, err, "Failed to fetch projects")
	}
	return projects, nil
}

// editable loads a project visible to the caller and checks that the caller
// is a tenant admin or its creator.
func (s *ProjectService) editable(ctx context.Context, rc auth.RequestContext, id uuid.UUID, action string) (*model.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, internal(ctx, err, "Failed to "+action+" project")
	}
	if project == nil || !rc.Scope().Allows(project.TenantID) {
		return nil, apperr.Missing("Project not found")
	}
	if rc.Role() != model.RoleTenantAdmin && !project.IsCreator(rc.UserID()) {
		return nil, apperr.Denied("Not authorized to " + action + " project")
	}
	return project, nil
}

type UpdateProjectRequest struct {
	Name        model.Optional[string] `json:"name"`
	Description model.Optional[string] `json:"description"`
	Status      model.Optional[string] `json:"status"`
}

// Update applies a merge-patch to name, description and status.
func (s *ProjectService) Update(ctx context.Context, rc auth.RequestContext, id uuid.UUID, req UpdateProjectRequest) (*model.Project, error) {
	project, err := s.editable(ctx, rc, id, "update")
	if err != nil {
		return nil, err
	}
	if req.Name.Present() && blank(req.Name.Value) {
		return nil, apperr.Invalid("Project name cannot be empty")
	}
	if req.Status.Present() && !validStatusLabel(req.Status.Value) {
		return nil, apperr.Invalid("Invalid project status")
	}

	project.Name = strings.TrimSpace(req.Name.Merge(project.Name))
	project.Description = req.Description.Merge(project.Description)
	project.Status = strings.TrimSpace(req.Status.Merge(project.Status))

	if err := s.store.UpdateProject(ctx, project); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Missing("Project not found")
		}
		return nil, internal(ctx, err, "Failed to update project")
	}
	return project, nil
}

// Delete removes a project and, by cascade, its tasks.
func (s *ProjectService) Delete(ctx context.Context, rc auth.RequestContext, id uuid.UUID) error {
	project, err := s.editable(ctx, rc, id, "delete")
	if err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, project.ID, project.TenantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Missing("Project not found")
		}
		return internal(ctx, err, "Failed to delete project")
	}
	return nil
}
