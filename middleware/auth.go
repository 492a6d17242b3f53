package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"visitor_access_go/config"
	"visitor_access_go/models"
	"visitor_access_go/services"
	"visitor_access_go/services/backend"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "visitor_access_session"
	// ContextKeyUser is the context key for the authenticated user
	ContextKeyUser = "user"
	// ContextKeySession is the context key for the session
	ContextKeySession = "session"
)

// RequireAuth loads the session named by the cookie and rejects anonymous
// or expired sessions. The bearer token is attached to the request context
// so backend calls made by handlers are authenticated.
func RequireAuth(store services.SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return redirectToLogin(c)
			}

			ctx := c.Request().Context()
			sess, err := store.Get(ctx, cookie.Value)
			if err != nil {
				if !errors.Is(err, services.ErrSessionNotFound) {
					c.Logger().Errorf("Loading session: %v", err)
				}
				ClearSessionCookie(c)
				return redirectToLogin(c)
			}

			if !sess.IsAuthenticated() || TokenExpired(sess.Token, time.Now()) {
				if err := store.Delete(ctx, sess.ID); err != nil {
					c.Logger().Warnf("Deleting expired session: %v", err)
				}
				ClearSessionCookie(c)
				return redirectToLogin(c)
			}

			c.Set(ContextKeyUser, sess.User)
			c.Set(ContextKeySession, sess)
			c.SetRequest(c.Request().WithContext(backend.WithToken(ctx, sess.Token)))

			return next(c)
		}
	}
}

func redirectToLogin(c echo.Context) error {
	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", "/login")
		return c.NoContent(http.StatusUnauthorized)
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

// RequireRole is middleware that requires specific roles. Role names are
// compared case-insensitively.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetCurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
			}

			for _, role := range roles {
				if strings.EqualFold(user.Role, role) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}

// TokenExpired reports whether a JWT bearer token carries an exp claim in
// the past. The signature is not checked here; the backend does that.
// Tokens that are not JWTs, or carry no exp, are treated as valid.
func TokenExpired(token string, now time.Time) bool {
	if token == "" {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// GetCurrentUser retrieves the current user from context
func GetCurrentUser(c echo.Context) *models.User {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetSession retrieves the session loaded by RequireAuth
func GetSession(c echo.Context) *models.Session {
	sess, ok := c.Get(ContextKeySession).(*models.Session)
	if !ok {
		return nil
	}
	return sess
}

// SetSessionCookie issues the session cookie for sess
func SetSessionCookie(c echo.Context, sess *models.Session) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie clears the session cookie
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProduction(c),
		SameSite: http.SameSiteLaxMode,
	})
}

func isProduction(c echo.Context) bool {
	cfg, ok := c.Get("config").(*config.Config)
	return ok && cfg.IsProduction()
}
