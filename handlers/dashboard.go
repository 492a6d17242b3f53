package handlers

import (
	"net/http"

	"visitor_access_go/templates"

	"github.com/labstack/echo/v4"
)

// Dashboard renders the statistics page. HTMX requests from the range and
// metric selectors get only the body.
func (h *Handler) Dashboard(c echo.Context) error {
	view := templates.DashboardPageView{
		Layout: layout(c, "dashboard.title", "dashboard"),
		View:   h.dashboard.Load(c.Request().Context(), c.QueryParam("range"), c.QueryParam("metric")),
	}
	if isHTMX(c) {
		return render(c, http.StatusOK, templates.DashboardBody(view))
	}
	return render(c, http.StatusOK, templates.DashboardPage(view))
}
