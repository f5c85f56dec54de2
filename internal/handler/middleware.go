package handler

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/teresa-solution/workspace-service/internal/apperr"
	"github.com/teresa-solution/workspace-service/internal/auth"
)

const (
	headerRequestID   = "X-Request-ID"
	requestContextKey = "request_context"
)

// RequestID assigns each request an id and stores a logger carrying it in the
// request context.
func RequestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		requestID := req.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Response().Header().Set(headerRequestID, requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		c.SetRequest(req.WithContext(logger.WithContext(req.Context())))
		return next(c)
	}
}

// AccessLog writes one line per request.
func AccessLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}

		req := c.Request()
		status := c.Response().Status
		var event *zerolog.Event
		logger := zerolog.Ctx(req.Context())
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		event.
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.RealIP()).
			Msg("HTTP request")
		return nil
	}
}

// Authenticate verifies the bearer credential, derives the tenant scope and
// stores the resulting auth.RequestContext for the handlers.
func Authenticate(tm *auth.TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rc, err := auth.Authenticate(tm, bearerToken(c))
			if err != nil {
				return err
			}
			c.Set(requestContextKey, rc)

			req := c.Request()
			logger := zerolog.Ctx(req.Context()).With().
				Str("user_id", rc.UserID().String()).
				Str("role", string(rc.Role())).
				Logger()
			if tenantID, ok := rc.Scope().TenantID(); ok {
				logger = logger.With().Str("tenant_id", tenantID.String()).Logger()
			}
			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requestContext returns the context stored by Authenticate.
func requestContext(c echo.Context) (auth.RequestContext, error) {
	rc, ok := c.Get(requestContextKey).(auth.RequestContext)
	if !ok {
		return auth.RequestContext{}, apperr.Unauthorized("Authentication required")
	}
	return rc, nil
}
