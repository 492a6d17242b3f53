package handlers

import (
	"net/http"

	"visitor_access_go/templates"

	"github.com/labstack/echo/v4"
)

// StatsPage renders the visitor statistics search form
func (h *Handler) StatsPage(c echo.Context) error {
	return render(c, http.StatusOK, templates.StatsPage(templates.StatsPageView{
		Layout: layout(c, "stats.title", "stats"),
	}))
}

// SearchStats looks up one visitor's history by document
func (h *Handler) SearchStats(c echo.Context) error {
	result := h.stats.Search(c.Request().Context(), c.FormValue("document"))
	if isHTMX(c) {
		return render(c, http.StatusOK, templates.StatsResult(result))
	}
	return render(c, http.StatusOK, templates.StatsPage(templates.StatsPageView{
		Layout: layout(c, "stats.title", "stats"),
		Result: &result,
	}))
}
