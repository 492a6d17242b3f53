// Package templates renders the guard desk pages and HTMX fragments.
// Markup lives in views/*.html; each exported function returns a
// templ.Component so handlers render every view the same way.
package templates

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"visitor_access_go/middleware"
	"visitor_access_go/models"
	"visitor_access_go/services"
	"visitor_access_go/services/i18n"
	"visitor_access_go/templates/components"

	"github.com/a-h/templ"
)

//go:embed views/*.html
var viewFS embed.FS

var views = template.Must(template.New("views").Funcs(baseFuncs).ParseFS(viewFS, "views/*.html"))

var baseFuncs = template.FuncMap{
	// bound per render in contextFuncs
	"t":      func(key string, args ...interface{}) string { return key },
	"nonce":  func() string { return "" },
	"locale": func() string { return "es" },

	"asset":      middleware.AssetURL,
	"json":       components.JSON,
	"hxHeaders":  components.HXHeaders,
	"display":    displayTime,
	"date":       services.FormatDisplay,
	"cell":       services.CellText,
	"visitType":  services.VisitTypeLabel,
	"document":   services.DocumentLabel,
	"stepName":   func(s models.Step) string { return "wizard.steps." + strconv.Itoa(int(s)) },
	"add":        func(a, b int) int { return a + b },
	"percent":    percent,
	"formatNum":  func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) },
	"optionName": models.OptionName,
}

// contextFuncs binds translation, nonce and locale to the request context
func contextFuncs(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"t": func(key string, args ...interface{}) string {
			return i18n.T(ctx, key, pairs(args)...)
		},
		"nonce":  func() string { return middleware.GetNonce(ctx) },
		"locale": func() string { return i18n.GetLocale(ctx) },
	}
}

// pairs turns ("count", 3, "total", 10) into the i18n placeholder map
func pairs(args []interface{}) []map[string]interface{} {
	if len(args) < 2 {
		return nil
	}
	vars := make(map[string]interface{}, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		vars[fmt.Sprint(args[i])] = args[i+1]
	}
	return []map[string]interface{}{vars}
}

func render(name string, data interface{}) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		tmpl, err := views.Clone()
		if err != nil {
			return err
		}
		tmpl.Funcs(contextFuncs(ctx))
		return tmpl.ExecuteTemplate(w, name, data)
	})
}

func displayTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return services.FormatDisplay(*t)
}

func percent(value, max float64) int {
	if max <= 0 {
		return 0
	}
	return int(value / max * 100)
}

func LoginPage(v LoginView) templ.Component { return render("login_page", v) }

// LoginError is the fragment swapped into the login form on failure
func LoginError(message string) templ.Component { return render("login_error", message) }

func VisitsPage(v VisitsPageView) templ.Component { return render("visits_page", v) }

func VisitsTable(v TableView) templ.Component { return render("visits_table", v) }

func Wizard(v WizardView) templ.Component { return render("wizard", v) }

// LocationFields re-renders the entity, unit, direction and area selects
func LocationFields(v WizardView) templ.Component { return render("location_fields", v) }

// LocationSelect renders one level of the location cascade
func LocationSelect(v WizardView, level string) templ.Component {
	return render("location_select", LocationLevelView{Wizard: v, Level: level})
}

func DashboardPage(v DashboardPageView) templ.Component { return render("dashboard_page", v) }

func DashboardBody(v DashboardPageView) templ.Component { return render("dashboard_body", v) }

func StatsPage(v StatsPageView) templ.Component { return render("stats_page", v) }

func StatsResult(r services.StatsResult) templ.Component { return render("stats_result", r) }

// Toasts renders notifications as an out-of-band swap into #toasts
func Toasts(n []models.Notification) templ.Component { return render("toasts", n) }
