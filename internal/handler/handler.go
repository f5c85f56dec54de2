// Package handler exposes the services over HTTP with echo.
package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/teresa-solution/workspace-service/internal/apperr"
	"github.com/teresa-solution/workspace-service/internal/auth"
	"github.com/teresa-solution/workspace-service/internal/monitoring"
	"github.com/teresa-solution/workspace-service/internal/service"
)

// Handler holds the services behind the HTTP API.
type Handler struct {
	tenants  *service.TenantService
	users    *service.UserService
	projects *service.ProjectService
	tasks    *service.TaskService
	tokens   *auth.TokenManager
	health   *monitoring.Health
}

func New(
	tenants *service.TenantService,
	users *service.UserService,
	projects *service.ProjectService,
	tasks *service.TaskService,
	tokens *auth.TokenManager,
	health *monitoring.Health,
) *Handler {
	return &Handler{
		tenants:  tenants,
		users:    users,
		projects: projects,
		tasks:    tasks,
		tokens:   tokens,
		health:   health,
	}
}

// NewEcho builds the HTTP server with the middleware chain and all routes.
func NewEcho(h *Handler, allowOrigins []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())
	e.Use(RequestID)
	e.Use(AccessLog)
	e.Use(monitoring.HTTPMetrics())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	h.Routes(e)
	return e
}

// Routes mounts the API under /api.
func (h *Handler) Routes(e *echo.Echo) {
	e.GET("/health", h.Health)

	api := e.Group("/api")
	api.GET("/health", h.Health)

	api.POST("/tenants", h.RegisterTenant)
	api.POST("/auth/register-tenant", h.RegisterTenant)
	api.POST("/auth/login", h.Login)

	authn := Authenticate(h.tokens)
	api.GET("/auth/me", h.Me, authn)

	api.POST("/tenants/:tenantId/users", h.AddUser, authn)
	api.GET("/tenants/:tenantId/users", h.ListUsers, authn)
	api.PUT("/users/:userId", h.UpdateUser, authn)
	api.DELETE("/users/:userId", h.DeleteUser, authn)

	api.POST("/projects", h.CreateProject, authn)
	api.GET("/projects", h.ListProjects, authn)
	api.PUT("/projects/:projectId", h.UpdateProject, authn)
	api.DELETE("/projects/:projectId", h.DeleteProject, authn)

	api.POST("/projects/:projectId/tasks", h.CreateTask, authn)
	api.GET("/projects/:projectId/tasks", h.ListTasks, authn)
	api.PATCH("/tasks/:taskId/status", h.UpdateTaskStatus, authn)
	api.PUT("/tasks/:taskId", h.UpdateTask, authn)
}

// bind decodes the JSON body into v.
func bind(c echo.Context, v any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		return apperr.Invalid("Invalid request body")
	}
	return nil
}

// pathID parses the uuid path parameter name.
func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Invalid("Invalid " + name)
	}
	return id, nil
}

func (h *Handler) Health(c echo.Context) error {
	if err := h.health.Check(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":   "error",
			"database": "disconnected",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "connected",
	})
}
