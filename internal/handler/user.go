package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/teresa-solution/workspace-service/internal/service"
)

func (h *Handler) AddUser(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	tenantID, err := pathID(c, "tenantId")
	if err != nil {
		return err
	}
	var req service.AddUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.users.Add(c.Request().Context(), rc, tenantID, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "User created successfully", user)
}

func (h *Handler) ListUsers(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	tenantID, err := pathID(c, "tenantId")
	if err != nil {
		return err
	}

	users, err := h.users.List(c.Request().Context(), rc, tenantID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", ListData("users", users))
}

func (h *Handler) UpdateUser(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	var req service.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.users.Update(c.Request().Context(), rc, id, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User updated successfully", user)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "userId")
	if err != nil {
		return err
	}

	if err := h.users.Delete(c.Request().Context(), rc, id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User deleted successfully", nil)
}
