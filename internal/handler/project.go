package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/teresa-solution/workspace-service/internal/apperr"
	"github.com/teresa-solution/workspace-service/internal/service"
)

func (h *Handler) CreateProject(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	var req service.CreateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	project, err := h.projects.Create(c.Request().Context(), rc, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Project created successfully", project)
}

// ListProjects accepts ?tenantId= to narrow a super admin's listing.
func (h *Handler) ListProjects(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	var filter *uuid.UUID
	if raw := c.QueryParam("tenantId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperr.Invalid("Invalid tenantId")
		}
		filter = &id
	}

	projects, err := h.projects.List(c.Request().Context(), rc, filter)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", ListData("projects", projects))
}

func (h *Handler) UpdateProject(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "projectId")
	if err != nil {
		return err
	}
	var req service.UpdateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	project, err := h.projects.Update(c.Request().Context(), rc, id, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Project updated successfully", project)
}

func (h *Handler) DeleteProject(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "projectId")
	if err != nil {
		return err
	}

	if err := h.projects.Delete(c.Request().Context(), rc, id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Project deleted successfully", nil)
}
