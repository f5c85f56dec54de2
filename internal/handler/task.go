package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/teresa-solution/workspace-service/internal/service"
)

func (h *Handler) CreateTask(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "projectId")
	if err != nil {
		return err
	}
	var req service.CreateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.Create(c.Request().Context(), rc, projectID, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Task created successfully", task)
}

func (h *Handler) ListTasks(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	projectID, err := pathID(c, "projectId")
	if err != nil {
		return err
	}

	tasks, err := h.tasks.List(c.Request().Context(), rc, projectID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", ListData("tasks", tasks))
}

func (h *Handler) UpdateTaskStatus(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "taskId")
	if err != nil {
		return err
	}
	var req service.UpdateTaskStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.UpdateStatus(c.Request().Context(), rc, id, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Task status updated", task)
}

func (h *Handler) UpdateTask(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "taskId")
	if err != nil {
		return err
	}
	var req service.UpdateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.Update(c.Request().Context(), rc, id, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Task updated successfully", task)
}
