package main

import (
	"context"
	"net/http"

	"github.com/diewo77/go-energy-kpi/auth"
	"github.com/diewo77/go-energy-kpi/internal/config"
	"github.com/diewo77/go-energy-kpi/internal/handlers"
	"github.com/diewo77/go-energy-kpi/internal/logger"
	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/diewo77/go-energy-kpi/internal/policy"
	"github.com/diewo77/go-energy-kpi/internal/services"
	"github.com/diewo77/go-energy-kpi/internal/store"
	"gorm.io/gorm"
)

// App is the main application handler: routes plus global middleware.
type App struct {
	handler http.Handler
}

// NewApp wires stores, authorization and services into the routes.
// values replaces the gorm value store when non-nil.
func NewApp(cfg *config.Config, db *gorm.DB, values store.ValueStore, logs *logger.Registry, checks map[string]handlers.Pinger) *App {
	log := logs.App()
	gs := store.NewGorm(db)
	if values == nil {
		values = gs
	}

	authGate := policy.NewAuthGate(db, cfg.App.ProfileCacheTTL, log)
	hierarchy := services.NewHierarchyService(gs)
	routerCfg := &handlers.RouterConfig{
		AuthGate: authGate,
		Verify:   userExists(db),
		Health:   checks,
		Organization: handlers.NewOrganizationHandler(
			hierarchy,
			services.NewConsolidationService(values, gs, gs, gs, log),
			services.NewCatalogService(gs),
			services.NewPeriodService(gs, log),
			authGate,
		),
		Values:     handlers.NewValueHandler(services.NewWorkflowService(values, gs, gs, gs, authGate, logs.Audit())),
		AdminUsers: handlers.NewAdminUserHandler(db, authGate),
	}

	// Global middleware: request ID, access log, actor context.
	h := http.Handler(routerCfg.Routes())
	h = auth.Middleware(h)
	h = handlers.Logging(log)(h)
	h = handlers.RequestID(h)
	return &App{handler: h}
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// userExists rejects actors that are not registered users.
func userExists(db *gorm.DB) auth.UserVerifier {
	return func(ctx context.Context, uid uint) bool {
		var count int64
		db.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Count(&count)
		return count > 0
	}
}
