package handlers

import (
	"errors"
	"net/http"
	"strings"

	"visitor_access_go/middleware"
	"visitor_access_go/models"
	"visitor_access_go/services"
	"visitor_access_go/services/backend"
	"visitor_access_go/services/i18n"
	"visitor_access_go/templates"

	"github.com/labstack/echo/v4"
)

// LoginPage renders the login form. Signed-in users go straight to the
// visit list.
func (h *Handler) LoginPage(c echo.Context) error {
	if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if sess, err := h.store.Get(c.Request().Context(), cookie.Value); err == nil && sess.IsAuthenticated() {
			return c.Redirect(http.StatusSeeOther, "/visits")
		}
	}
	return render(c, http.StatusOK, templates.LoginPage(templates.LoginView{Layout: layout(c, "login.title", "")}))
}

// Login exchanges the credentials for a backend token and opens a session
func (h *Handler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	if username == "" || password == "" {
		return h.loginFailed(c, username, i18n.T(ctx, "login.required"))
	}

	resp, err := h.api.Login(ctx, username, password)
	if err != nil {
		c.Logger().Warnf("Login for %q failed: %v", username, err)
		var apiErr *backend.APIError
		switch {
		case errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest):
			h.monitor.Failed(c.RealIP(), username)
			return h.loginFailed(c, username, i18n.T(ctx, "login.invalid"))
		case backend.MessageOf(err) != "":
			return h.loginFailed(c, username, backend.MessageOf(err))
		default:
			return h.loginFailed(c, username, i18n.T(ctx, "login.unavailable"))
		}
	}

	sess := services.NewSession(h.cfg.SessionTTL)
	sess.User = resp.User
	if sess.User == nil {
		sess.User = &models.User{Username: username}
	}
	sess.Token = resp.Token
	sess.IPAddress = c.RealIP()
	sess.UserAgent = c.Request().UserAgent()

	if err := h.store.Create(ctx, sess); err != nil {
		c.Logger().Errorf("Creating session: %v", err)
		return h.loginFailed(c, username, i18n.T(ctx, "login.unavailable"))
	}

	h.monitor.Succeeded(sess.IPAddress)
	middleware.SetSessionCookie(c, sess)
	c.Logger().Infof("User %s signed in", sess.User.Username)
	return hxRedirect(c, "/visits")
}

func (h *Handler) loginFailed(c echo.Context, username, message string) error {
	if isHTMX(c) {
		return render(c, http.StatusOK, templates.LoginError(message))
	}
	view := templates.LoginView{Layout: layout(c, "login.title", ""), Username: username, Error: message}
	return render(c, http.StatusUnauthorized, templates.LoginPage(view))
}

// Logout drops the session, its visit table and the cookie
func (h *Handler) Logout(c echo.Context) error {
	if sess := middleware.GetSession(c); sess != nil {
		if err := h.store.Delete(c.Request().Context(), sess.ID); err != nil {
			c.Logger().Warnf("Deleting session: %v", err)
		}
		h.tables.Forget(sess.ID)
	}
	middleware.ClearSessionCookie(c)
	return hxRedirect(c, "/login")
}
