package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-monitor/internal/api/http/handlers"
	"github.com/spec-kit/sla-monitor/internal/auth"
	"github.com/spec-kit/sla-monitor/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Escalations    *handlers.EscalationsHandler
	Violations     *handlers.ViolationsHandler
	Metrics        *handlers.MetricsHandler
	Sweeps         *handlers.SweepsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	api.Get("/violations", auth.RequireRole(domain.RoleContributor), cfg.Violations.List)
	api.Get("/work-items/:id/escalations", auth.RequireRole(domain.RoleContributor), cfg.Escalations.History)
	api.Get("/applications/:id/compliance", auth.RequireRole(domain.RoleContributor), cfg.Metrics.Compliance)

	api.Post("/escalations", auth.RequireRole(domain.RoleAdmin), cfg.Escalations.Trigger)
	api.Post("/sweeps", auth.RequireRole(domain.RoleAdmin), cfg.Sweeps.Trigger)
}
