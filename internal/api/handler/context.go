package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxUserID returns the caller id stored by the RequireAuth middleware.
// An empty id means the route was mounted without it.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authentication token required")
	}
	return userID, nil
}
