package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"visitor_access_go/middleware"
	"visitor_access_go/models"
	"visitor_access_go/services"
	"visitor_access_go/services/backend"
	"visitor_access_go/templates"

	"github.com/labstack/echo/v4"
)

const maxTableLimit = 100

// parseTableQuery reads q, sort, dir, page and limit from the query string
// or the posted controls form.
func parseTableQuery(c echo.Context) services.TableQuery {
	q := services.TableQuery{
		Filter: strings.TrimSpace(c.FormValue("q")),
		Sort:   c.FormValue("sort"),
		Desc:   c.FormValue("dir") == "desc",
	}
	if page, err := strconv.Atoi(c.FormValue("page")); err == nil && page > 0 {
		q.Page = page
	} else {
		q.Page = 1
	}
	if limit, err := strconv.Atoi(c.FormValue("limit")); err == nil && limit > 0 {
		if limit > maxTableLimit {
			limit = maxTableLimit
		}
		q.Limit = limit
	}
	return q
}

func (h *Handler) table(c echo.Context) *services.VisitTable {
	return h.tables.For(sessionID(c))
}

func (h *Handler) tableView(c echo.Context, table *services.VisitTable, toasts ...models.Notification) templates.TableView {
	user := middleware.GetCurrentUser(c)
	q := parseTableQuery(c)
	return templates.TableView{
		Page:    table.Query(q),
		Query:   q,
		Columns: services.VisibleColumns(user),
		User:    user,
		Toasts:  toasts,
	}
}

func (h *Handler) renderTable(c echo.Context, table *services.VisitTable, toasts ...models.Notification) error {
	return render(c, http.StatusOK, templates.VisitsTable(h.tableView(c, table, toasts...)))
}

// VisitsPage renders the registration wizard above the visit table
func (h *Handler) VisitsPage(c echo.Context) error {
	table := h.table(c)
	if err := table.EnsureLoaded(c.Request().Context()); err != nil {
		c.Logger().Warnf("Loading visits: %v", err)
	}
	view := templates.VisitsPageView{
		Layout: layout(c, "nav.visits", "visits"),
		Table:  h.tableView(c, table),
	}
	return render(c, http.StatusOK, templates.VisitsPage(view))
}

// VisitsTable renders the table fragment. refresh=1 refetches from the
// backend; otherwise the cached rows are filtered, sorted and paged.
func (h *Handler) VisitsTable(c echo.Context) error {
	table := h.table(c)
	ctx := c.Request().Context()

	var err error
	if c.QueryParam("refresh") == "1" {
		err = table.Refresh(ctx)
	} else {
		err = table.EnsureLoaded(ctx)
	}
	if err != nil {
		c.Logger().Warnf("Loading visits: %v", err)
	}
	return h.renderTable(c, table)
}

// RefreshVisits refetches the list on demand
func (h *Handler) RefreshVisits(c echo.Context) error {
	table := h.table(c)
	if err := table.Refresh(c.Request().Context()); err != nil {
		c.Logger().Warnf("Refreshing visits: %v", err)
	}
	return h.renderTable(c, table)
}

// SelectVisits toggles one row ("id") or sets the rows in "ids" to the
// state in "all" (on|off).
func (h *Handler) SelectVisits(c echo.Context) error {
	table := h.table(c)

	if raw := c.FormValue("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
		}
		table.ToggleSelect(id)
		return h.renderTable(c, table)
	}

	ids, err := parseIDs(c.FormValue("ids"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit ids")
	}
	table.SetSelected(ids, c.FormValue("all") == "on")
	return h.renderTable(c, table)
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DeleteSelectedVisits removes every selected row in one backend call
func (h *Handler) DeleteSelectedVisits(c echo.Context) error {
	table := h.table(c)
	err := table.DeleteSelected(c.Request().Context())
	switch {
	case errors.Is(err, services.ErrNothingSelected):
		return h.renderTable(c, table, models.Notification{Level: models.NotifyInfo, Message: services.MsgNoneSelected})
	case err != nil:
		return h.renderTable(c, table, mutationFailed(err, services.MsgDeleteFailed))
	}
	return h.renderTable(c, table, models.Notification{Level: models.NotifySuccess, Message: services.MsgDeleteSuccess})
}

// DeleteVisit removes one row
func (h *Handler) DeleteVisit(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	table := h.table(c)
	if err := table.DeleteOne(c.Request().Context(), id); err != nil {
		return h.renderTable(c, table, mutationFailed(err, services.MsgDeleteFailed))
	}
	return h.renderTable(c, table, models.Notification{Level: models.NotifySuccess, Message: services.MsgDeleteSuccess})
}

// MarkExit asks the backend to stamp the visitor's exit
func (h *Handler) MarkExit(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	table := h.table(c)
	if err := table.MarkExit(c.Request().Context(), id); err != nil {
		return h.renderTable(c, table, mutationFailed(err, services.MsgExitFailed))
	}
	return h.renderTable(c, table, models.Notification{Level: models.NotifySuccess, Message: services.MsgExitSuccess})
}

// mutationFailed prefers the backend's own message over the generic one
func mutationFailed(err error, fallback string) models.Notification {
	msg := fallback
	if m := backend.MessageOf(err); m != "" {
		msg = m
	}
	return models.Notification{Level: models.NotifyError, Message: msg}
}
