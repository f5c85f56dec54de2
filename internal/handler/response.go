package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/teresa-solution/workspace-service/internal/apperr"
)

// Response is the envelope of every API response.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ListData wraps list results as {<key>: [...], total: n}.
func ListData[T any](key string, items []T) map[string]any {
	if items == nil {
		items = []T{}
	}
	return map[string]any{key: items, "total": len(items)}
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidInput:
		return http.StatusBadRequest
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.RateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders errors returned by handlers and middleware in the
// response envelope. Only the client-safe message of an error is sent.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := apperr.MessageOf(err)

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(he.Code)
		}
	default:
		status = statusOf(apperr.KindOf(err))
	}

	if status >= http.StatusInternalServerError {
		log.Ctx(c.Request().Context()).Error().Err(err).Msg("Request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, Response{Success: false, Message: message})
	}
	if err != nil {
		log.Ctx(c.Request().Context()).Error().Err(err).Msg("Failed to write error response")
	}
}
