package main

import (
	"log"
	"net/http"

	"visitor_access_go/config"
	"visitor_access_go/handlers"
	"visitor_access_go/middleware"
	"visitor_access_go/models"
	"visitor_access_go/services"
	"visitor_access_go/services/backend"
	"visitor_access_go/services/i18n"
	"visitor_access_go/services/jobs"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if err := i18n.Load(); err != nil {
		log.Fatalf("Failed to load translations: %v", err)
	}
	middleware.InitAssetVersions()

	store := services.NewSessionStore(cfg)
	photos := services.NewPhotoStorage(cfg)
	api := backend.New(cfg.APIURL, "", cfg.APITimeout)
	h := handlers.New(cfg, api, store, photos)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.RequestLogger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: true,
	}))
	// Webcam captures arrive as base64 data URLs
	e.Use(echomiddleware.BodyLimit("6M"))

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})
	e.Use(middleware.CSPNonce())
	e.Use(middleware.Locale(cfg))
	e.Use(middleware.CSRF(cfg))

	// Static files
	e.Static("/static", "static")

	// Public routes (no authentication required)
	e.GET("/health", h.Health)
	e.GET("/login", h.LoginPage)
	e.POST("/login", h.Login, middleware.LoginRateLimiter.Middleware())

	// Protected routes (signed-in guards and administrators)
	protected := e.Group("")
	protected.Use(middleware.RequireAuth(store))
	protected.Use(middleware.AuditContext())
	{
		protected.GET("/", func(c echo.Context) error {
			return c.Redirect(http.StatusSeeOther, "/visits")
		})
		protected.POST("/logout", h.Logout)

		// Visit table
		protected.GET("/visits", h.VisitsPage)
		protected.GET("/htmx/visits", h.VisitsTable)
		protected.POST("/htmx/visits/refresh", h.RefreshVisits)

		// Registration wizard
		protected.GET("/wizard", h.ShowWizard)
		protected.POST("/wizard/type", h.SelectVisitType)
		protected.POST("/wizard/lookup", h.LookupVisitor, middleware.LookupRateLimiter.Middleware())
		protected.POST("/wizard/next", h.NextStep)
		protected.POST("/wizard/back", h.PreviousStep)
		protected.POST("/wizard/step/:step", h.GoToStep)
		protected.POST("/wizard/reset", h.ResetWizard)
		protected.POST("/wizard/photo", h.UploadPhoto)
		protected.POST("/wizard/submit", h.SubmitVisit)
		protected.GET("/wizard/options/:level", h.LocationOptions)
		protected.POST("/wizard/select/:level", h.SelectLocation)
		protected.GET("/photos/*", h.ServePhoto)

		// Statistics
		protected.GET("/dashboard", h.Dashboard)
		protected.GET("/stats/search", h.StatsPage)
		protected.POST("/stats/search", h.SearchStats, middleware.LookupRateLimiter.Middleware())
	}

	// Admin-only routes
	adminRoutes := protected.Group("/htmx/visits")
	adminRoutes.Use(middleware.RequireRole(models.RoleAdmin))
	{
		adminRoutes.POST("/select", h.SelectVisits)
		adminRoutes.POST("/delete", h.DeleteSelectedVisits)
		adminRoutes.DELETE("/:id", h.DeleteVisit)
		adminRoutes.PATCH("/:id/exit", h.MarkExit)
	}

	// Background sweep of sessions, visit tables and sign-in counters (hourly)
	scheduler := jobs.StartScheduler(cfg.Location(), store, h.Tables(), h.Monitor())
	defer scheduler.Stop()

	// Start server
	log.Printf("Server starting on port %s (backend %s)", cfg.ServerPort, cfg.APIURL)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
