package middleware

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

const ContextKeyAuditContext = "audit_context"

// AuditInfo identifies who performed a request
type AuditInfo struct {
	UserID    int64
	Username  string
	UserRole  string
	IPAddress string
	UserAgent string
}

// AuditContext is middleware that extracts user info for audit logging.
// It must run after RequireAuth.
func AuditContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			info := AuditInfo{
				IPAddress: c.RealIP(),
				UserAgent: c.Request().UserAgent(),
			}
			if user := GetCurrentUser(c); user != nil {
				info.UserID = user.ID
				info.Username = user.Username
				info.UserRole = user.Role
			}
			c.Set(ContextKeyAuditContext, info)

			err := next(c)
			if c.Request().Method != http.MethodGet {
				status := c.Response().Status
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
				log.Printf("[AUDIT] user=%s role=%s ip=%s %s %s status=%d",
					info.Username, info.UserRole, info.IPAddress, c.Request().Method, c.Request().URL.Path, status)
			}
			return err
		}
	}
}

// GetAuditContext retrieves the audit info from the request
func GetAuditContext(c echo.Context) AuditInfo {
	if info, ok := c.Get(ContextKeyAuditContext).(AuditInfo); ok {
		return info
	}
	return AuditInfo{}
}
