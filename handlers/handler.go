// Package handlers implements the guard desk web routes: login, the visit
// registration wizard, the visit table, the dashboard and visitor statistics.
package handlers

import (
	"context"

	"visitor_access_go/config"
	"visitor_access_go/services"
	"visitor_access_go/services/backend"
)

// Backend is every backend call the web tier makes. *backend.Client
// satisfies it.
type Backend interface {
	services.VisitorSearcher
	services.ReferenceSource
	services.Registrar
	services.VisitSource
	services.DashboardSource
	services.VisitorStatsSource
	Login(ctx context.Context, username, password string) (*backend.LoginResponse, error)
}

// Handler carries the services behind the routes
type Handler struct {
	cfg     *config.Config
	api     Backend
	store   services.SessionStore
	storage services.PhotoStorage
	schema  *services.Schema

	lookup    *services.VisitorLookup
	reference *services.ReferenceLoader
	submitter *services.Submitter
	photos    *services.PhotoService
	tables    *services.TableRegistry
	dashboard *services.DashboardService
	stats     *services.VisitorStatsService
	monitor   *services.LoginMonitor
}

func New(cfg *config.Config, api Backend, store services.SessionStore, storage services.PhotoStorage) *Handler {
	schema := services.NewSchema(cfg.PhotoRequired)
	return &Handler{
		cfg:       cfg,
		api:       api,
		store:     store,
		storage:   storage,
		schema:    schema,
		lookup:    services.NewVisitorLookup(api),
		reference: services.NewReferenceLoader(api, store),
		submitter: services.NewSubmitter(api, store, schema, cfg.Location()),
		photos:    services.NewPhotoService(storage, store),
		tables:    services.NewTableRegistry(api, cfg.TablePageSize),
		dashboard: services.NewDashboardService(api),
		stats:     services.NewVisitorStatsService(api),
		monitor:   services.NewLoginMonitor(),
	}
}

// Tables exposes the per-session visit tables to the maintenance jobs
func (h *Handler) Tables() *services.TableRegistry { return h.tables }

// Monitor exposes the failed sign-in counters to the maintenance jobs
func (h *Handler) Monitor() *services.LoginMonitor { return h.monitor }
