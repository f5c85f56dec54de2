package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/teresa-solution/workspace-service/internal/service"
)

func (h *Handler) RegisterTenant(c echo.Context) error {
	var req service.RegisterTenantRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	resp, err := h.tenants.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Tenant registered successfully", resp)
}

func (h *Handler) Login(c echo.Context) error {
	var req service.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	resp, err := h.tenants.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", resp)
}

func (h *Handler) Me(c echo.Context) error {
	rc, err := requestContext(c)
	if err != nil {
		return err
	}
	resp, err := h.tenants.Me(c.Request().Context(), rc)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", resp)
}
