package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"visitor_access_go/config"
	"visitor_access_go/services/i18n"

	"github.com/labstack/echo/v4"
)

// supportedLocales are the languages shipped in services/i18n
var supportedLocales = map[string]bool{"es": true, "en": true}

// Locale middleware handles language detection and persistence.
// Priority:
// 1. Query param "lang" (sets cookie)
// 2. Cookie "lang"
// 3. Accept-Language header
// 4. cfg.DefaultLocale ("es")
func Locale(cfg *config.Config) echo.MiddlewareFunc {
	fallback := cfg.DefaultLocale
	if !supportedLocales[fallback] {
		fallback = "es"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lang := c.QueryParam("lang")
			if lang != "" {
				if !supportedLocales[lang] {
					lang = fallback
				}
				c.SetCookie(languageCookie(lang, cfg.IsProduction()))
			} else if cookie, err := c.Cookie("lang"); err == nil && supportedLocales[cookie.Value] {
				lang = cookie.Value
			}

			if lang == "" {
				lang = fromAcceptLanguage(c.Request().Header.Get("Accept-Language"), fallback)
			}

			c.Set("locale", lang)
			ctx := context.WithValue(c.Request().Context(), i18n.LocaleContextKey, lang)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// fromAcceptLanguage picks the first supported primary tag
func fromAcceptLanguage(header, fallback string) string {
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		primary, _, _ := strings.Cut(strings.ToLower(tag), "-")
		if supportedLocales[primary] {
			return primary
		}
	}
	return fallback
}

func languageCookie(lang string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     "lang",
		Value:    lang,
		Expires:  time.Now().Add(24 * 365 * time.Hour),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// GetLocale returns the current locale from context
func GetLocale(c echo.Context) string {
	if lang, ok := c.Get("locale").(string); ok {
		return lang
	}
	return "es"
}
