package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"visitor_access_go/middleware"
	"visitor_access_go/models"
	"visitor_access_go/services"
	"visitor_access_go/templates"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// postedValues flattens the form to its first value per key
func postedValues(c echo.Context) map[string]string {
	params, err := c.FormParams()
	if err != nil {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// drain takes the queued notifications out of the wizard and returns the
// session as stored afterwards.
func (h *Handler) drain(c echo.Context, sid string) (*models.Session, []models.Notification, error) {
	var toasts []models.Notification
	sess, err := h.store.Update(c.Request().Context(), sid, func(s *models.Session) error {
		toasts = s.Wizard.DrainNotifications()
		return nil
	})
	return sess, toasts, err
}

// renderWizard renders the current step with any pending toasts
func (h *Handler) renderWizard(c echo.Context) error {
	sess, toasts, err := h.drain(c, sessionID(c))
	if err != nil {
		return h.sessionError(c, err)
	}
	view := templates.NewWizardView(&sess.Wizard, h.cfg.PhotoRequired)
	view.Toasts = toasts
	return render(c, http.StatusOK, templates.Wizard(view))
}

// updateWizard runs fn against the session's wizard, then re-renders it
func (h *Handler) updateWizard(c echo.Context, fn func(w *services.Wizard) error) error {
	_, err := h.store.Update(c.Request().Context(), sessionID(c), func(s *models.Session) error {
		return fn(services.NewWizard(&s.Wizard, h.schema))
	})
	if err != nil {
		return h.sessionError(c, err)
	}
	return h.renderWizard(c)
}

func (h *Handler) notify(c echo.Context, level, message string) error {
	return h.updateWizard(c, func(w *services.Wizard) error {
		w.State().Notify(level, message)
		return nil
	})
}

func (h *Handler) sessionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidStep), errors.Is(err, services.ErrInvalidVisitType):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrSessionNotFound):
		return hxRedirect(c, "/login")
	default:
		c.Logger().Errorf("Updating wizard session: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
	}
}

// ShowWizard renders the current step
func (h *Handler) ShowWizard(c echo.Context) error {
	return h.renderWizard(c)
}

// SelectVisitType records pedestrian or vehicle and moves to the lookup
func (h *Handler) SelectVisitType(c echo.Context) error {
	visitType := models.VisitType(c.FormValue(models.FieldFormType))
	return h.updateWizard(c, func(w *services.Wizard) error {
		return w.SelectVisitType(visitType)
	})
}

// LookupVisitor searches the typed document and pre-fills the personal
// step. The backend call runs outside the session update.
func (h *Handler) LookupVisitor(c echo.Context) error {
	dniType, number, err := services.ParseDocument(c.FormValue("document"))
	if err != nil {
		return h.notify(c, models.NotifyError, services.DocumentErrorMessage(err))
	}

	result := h.lookup.Lookup(c.Request().Context(), dniType, number)
	return h.updateWizard(c, func(w *services.Wizard) error {
		w.ApplyLookup(result)
		w.State().Notify(result.Message())
		return nil
	})
}

// NextStep saves the posted fields and advances when they validate
func (h *Handler) NextStep(c echo.Context) error {
	posted := postedValues(c)
	return h.updateWizard(c, func(w *services.Wizard) error {
		w.Apply(posted)
		w.Next()
		return nil
	})
}

// PreviousStep saves the posted fields and goes back without validation
func (h *Handler) PreviousStep(c echo.Context) error {
	posted := postedValues(c)
	return h.updateWizard(c, func(w *services.Wizard) error {
		w.Apply(posted)
		w.Back()
		return nil
	})
}

// GoToStep jumps to the step in the path, used by the progress bar and the
// summary edit links.
func (h *Handler) GoToStep(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid step")
	}
	posted := postedValues(c)
	return h.updateWizard(c, func(w *services.Wizard) error {
		w.Apply(posted)
		return w.SetStep(models.Step(n))
	})
}

// ResetWizard discards the registration in progress
func (h *Handler) ResetWizard(c echo.Context) error {
	return h.updateWizard(c, func(w *services.Wizard) error {
		w.Reset()
		return nil
	})
}

// UploadPhoto accepts a webcam capture ("photo", a data URL) or a file
// upload ("photoFile").
func (h *Handler) UploadPhoto(c echo.Context) error {
	photo, err := readPhoto(c)
	if err != nil {
		c.Logger().Warnf("Rejected visitor photo: %v", err)
		return h.notify(c, models.NotifyError, services.MsgPhotoInvalid)
	}
	if _, err := h.photos.Save(c.Request().Context(), sessionID(c), photo); err != nil {
		c.Logger().Errorf("Saving visitor photo: %v", err)
		return h.notify(c, models.NotifyError, services.MsgPhotoFailed)
	}
	return h.renderWizard(c)
}

func readPhoto(c echo.Context) (*services.Photo, error) {
	if data := c.FormValue("photo"); data != "" {
		return services.DecodeDataURL(data)
	}
	fh, err := c.FormFile("photoFile")
	if err != nil {
		return nil, services.ErrPhotoEmpty
	}
	if fh.Size > services.MaxPhotoSize {
		return nil, services.ErrPhotoTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return services.ReadPhoto(f)
}

// ServePhoto streams a stored visitor photo
func (h *Handler) ServePhoto(c echo.Context) error {
	rc, contentType, err := h.photos.Open(c.Request().Context(), c.Param("*"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "photo not found")
	}
	defer rc.Close()
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=3600")
	return c.Stream(http.StatusOK, contentType, rc)
}

// SubmitVisit registers the visit. On success the table is told to refetch.
func (h *Handler) SubmitVisit(c echo.Context) error {
	sess, created, err := h.submitter.Submit(c.Request().Context(), sessionID(c))
	if sess == nil {
		return h.sessionError(c, err)
	}
	if created {
		c.Response().Header().Set("HX-Trigger", TriggerVisitsChanged)
		audit := middleware.GetAuditContext(c)
		c.Logger().Infof("Visit registered by %s (%s) from %s", audit.Username, audit.UserRole, audit.IPAddress)
	}
	return h.renderWizard(c)
}

// LocationOptions renders one select of the location cascade. The entity
// list is fetched the first time it is asked for.
func (h *Handler) LocationOptions(c echo.Context) error {
	level := c.Param("level")
	if templates.LevelField(level) == "" {
		return echo.NewHTTPError(http.StatusNotFound, "unknown level")
	}
	if level == templates.LevelEntities {
		if _, err := h.reference.LoadEntities(c.Request().Context(), sessionID(c)); err != nil {
			return h.sessionError(c, err)
		}
	}

	sess, toasts, err := h.drain(c, sessionID(c))
	if err != nil {
		return h.sessionError(c, err)
	}
	view := templates.NewWizardView(&sess.Wizard, h.cfg.PhotoRequired)
	if len(toasts) == 0 {
		return render(c, http.StatusOK, templates.LocationSelect(view, level))
	}
	return renderAll(c, templates.LocationSelect(view, level), templates.Toasts(toasts))
}

// SelectLocation records a choice in the cascade, clears the levels below
// it and loads the next level's options.
func (h *Handler) SelectLocation(c echo.Context) error {
	level := c.Param("level")
	field := templates.LevelField(level)
	if field == "" {
		return echo.NewHTTPError(http.StatusNotFound, "unknown level")
	}

	ctx := c.Request().Context()
	sid := sessionID(c)
	value := c.FormValue(field)

	var err error
	switch level {
	case templates.LevelEntities:
		_, err = h.reference.SelectEntity(ctx, sid, value)
	case templates.LevelUnits:
		_, err = h.reference.SelectUnit(ctx, sid, value)
	case templates.LevelDirections:
		_, err = h.reference.SelectDirection(ctx, sid, value)
	case templates.LevelAreas:
		_, err = h.reference.SelectArea(ctx, sid, value)
	}
	if err != nil {
		return h.sessionError(c, err)
	}

	sess, toasts, err := h.drain(c, sid)
	if err != nil {
		return h.sessionError(c, err)
	}
	view := templates.NewWizardView(&sess.Wizard, h.cfg.PhotoRequired)
	view.Toasts = toasts
	return render(c, http.StatusOK, templates.LocationFields(view))
}

// renderAll writes several components into one response
func renderAll(c echo.Context, components ...templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	for _, comp := range components {
		if err := comp.Render(c.Request().Context(), c.Response().Writer); err != nil {
			return err
		}
	}
	return nil
}
