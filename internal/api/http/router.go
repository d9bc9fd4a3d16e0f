package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-lifecycle/internal/api/http/handlers"
	"github.com/spec-kit/ticket-lifecycle/internal/auth"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	WorkSessions   *handlers.WorkSessionsHandler
	Audit          *handlers.AuditHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	api.Post("/tickets", cfg.Tickets.CreateTicket)
	api.Get("/tickets/:id", cfg.Tickets.GetTicket)
	api.Patch("/tickets/:id", cfg.Tickets.UpdateTicket)
	api.Post("/tickets/:id/transition", cfg.Tickets.Transition)
	api.Post("/tickets/:id/assign", cfg.Tickets.Assign)
	api.Post("/tickets/:id/work-sessions", cfg.WorkSessions.StartWork)
	api.Get("/tickets/:id/work-sessions", cfg.WorkSessions.ListForTicket)
	api.Get("/tickets/:id/work-sessions/active", cfg.WorkSessions.ActiveForTicket)
	api.Get("/tickets/:id/audit-records", cfg.Audit.ListForTicket)

	api.Get("/work-sessions", cfg.WorkSessions.List)
	api.Get("/work-sessions/active", cfg.WorkSessions.Active)
	api.Post("/work-sessions/:id/stop", cfg.WorkSessions.StopWork)

	api.Get("/audit-records", cfg.Audit.List)

	admin := api.Group("/admin", auth.RequireRole(domain.UserRoleAdmin, domain.UserRoleManager))
	admin.Get("/metrics", cfg.Health.Metrics)
}
