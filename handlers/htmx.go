package handlers

import (
	"net/http"

	"visitor_access_go/middleware"
	"visitor_access_go/models"
	"visitor_access_go/services/i18n"
	"visitor_access_go/templates"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// TriggerVisitsChanged makes the visit table refetch itself
const TriggerVisitsChanged = "visits-changed"

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}

// render writes component as an HTML response
func render(c echo.Context, status int, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(status)
	return component.Render(c.Request().Context(), c.Response().Writer)
}

// toast renders a single notification as an out-of-band swap. The target
// is left untouched.
func toast(c echo.Context, level, message string) error {
	c.Response().Header().Set("HX-Reswap", "none")
	return render(c, http.StatusOK, templates.Toasts([]models.Notification{{Level: level, Message: message}}))
}

// hxRedirect sends HTMX requests to path with HX-Redirect and everything
// else with a 303.
func hxRedirect(c echo.Context, path string) error {
	if isHTMX(c) {
		c.Response().Header().Set("HX-Redirect", path)
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, path)
}

// layout builds the page chrome; titleKey is an i18n key
func layout(c echo.Context, titleKey, active string) templates.Layout {
	ctx := c.Request().Context()
	return templates.Layout{
		Title:  i18n.T(ctx, titleKey) + " | " + i18n.T(ctx, "app.name"),
		CSRF:   middleware.GetCSRFToken(c),
		User:   middleware.GetCurrentUser(c),
		Active: active,
	}
}

// sessionID is the id of the session loaded by RequireAuth
func sessionID(c echo.Context) string {
	if sess := middleware.GetSession(c); sess != nil {
		return sess.ID
	}
	return ""
}
