package handler

import (
	"fmt"
	"html"
	"net/http"

	"github.com/labstack/echo/v4"
)

// PageHandler serves the placeholder browser pages behind the request gate.
// The real UI is a separate frontend; these only give the gate something
// to route to.
type PageHandler struct{}

func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

const pageTemplate = `<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>%s</title></head>
<body><main id="app" data-page="%s"></main></body></html>`

func (h *PageHandler) Login(c echo.Context) error {
	return c.HTML(http.StatusOK, page("Sign in", "login"))
}

func (h *PageHandler) Register(c echo.Context) error {
	return c.HTML(http.StatusOK, page("Create account", "register"))
}

func (h *PageHandler) Dashboard(c echo.Context) error {
	return c.HTML(http.StatusOK, page("Dashboard", "dashboard"))
}

func page(title, name string) string {
	return fmt.Sprintf(pageTemplate, html.EscapeString(title), name)
}
