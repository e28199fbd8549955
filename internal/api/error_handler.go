package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/entityhub/entity-manager/internal/api/middleware"
	"github.com/entityhub/entity-manager/internal/core/domain"
)

// Error kinds carried in the "error" field of failure responses.
const (
	KindValidation         = "VALIDATION_ERROR"
	KindUserExists         = "USER_EXISTS"
	KindInvalidCredentials = "INVALID_CREDENTIALS"
	KindUnauthorized       = "UNAUTHORIZED"
	KindUserNotFound       = "USER_NOT_FOUND"
	KindNotFound           = "NOT_FOUND"
	KindServer             = "SERVER_ERROR"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and error kind.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders {"success": false, "error": "<KIND>", "message": "<text>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, kind, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: kind, Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, string) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, KindValidation, ve.Message
	}

	var ae *middleware.AuthError
	if errors.As(err, &ae) {
		return ae.Status, KindUnauthorized, ae.Message
	}

	switch {
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusBadRequest, KindUserExists, "User with this email already exists"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, KindInvalidCredentials, "Invalid email or password"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, KindUserNotFound, "User not found"
	case errors.Is(err, domain.ErrEntityNotFound):
		return http.StatusNotFound, KindNotFound, "Entity not found"
	}

	// Echo's own errors (404 from the router, 405, 401 from handlers).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			logUnhandled(log, c, err)
		}
		return he.Code, kindForStatus(he.Code), fmt.Sprintf("%v", he.Message)
	}

	logUnhandled(log, c, err)
	return http.StatusInternalServerError, KindServer, "Internal server error"
}

func kindForStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	}
	if code >= http.StatusInternalServerError {
		return KindServer
	}
	return http.StatusText(code)
}

// logUnhandled records the real cause; the client only sees a generic message.
func logUnhandled(log zerolog.Logger, c echo.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")
}
