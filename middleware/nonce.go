package middleware

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

// NonceKey holds the per-request script nonce in both the echo and the
// request context
const NonceKey contextKey = "csp_nonce"

// nonceSource is swapped in tests
var nonceSource io.Reader = rand.Reader

// GenerateNonce returns 16 random bytes, URL-safe base64 encoded
func GenerateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := io.ReadFull(nonceSource, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ContentSecurityPolicy builds the policy for the guard desk pages. Scripts
// run only from this origin, the htmx CDN or with the nonce. The webcam
// preview needs blob: and mediastream: sources, captured photos are shown
// as data: URLs.
func ContentSecurityPolicy(nonce string) string {
	directives := []string{
		"default-src 'self'",
		"script-src 'self' 'nonce-" + nonce + "' https://unpkg.com",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data: blob:",
		"media-src 'self' blob: mediastream:",
		"connect-src 'self'",
		"frame-ancestors 'none'",
	}
	return strings.Join(directives, "; ")
}

// CSPNonce issues a fresh nonce per request and sends the matching policy.
// A page cannot run its inline scripts without a nonce, so a failure to
// generate one fails the request.
func CSPNonce() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			nonce, err := GenerateNonce()
			if err != nil {
				c.Logger().Errorf("Generating CSP nonce: %v", err)
				return echo.NewHTTPError(http.StatusInternalServerError)
			}

			c.Set(string(NonceKey), nonce)
			c.SetRequest(c.Request().WithContext(context.WithValue(c.Request().Context(), NonceKey, nonce)))
			c.Response().Header().Set("Content-Security-Policy", ContentSecurityPolicy(nonce))

			return next(c)
		}
	}
}

// GetNonce returns the request nonce, "" outside CSPNonce
func GetNonce(ctx context.Context) string {
	nonce, _ := ctx.Value(NonceKey).(string)
	return nonce
}
