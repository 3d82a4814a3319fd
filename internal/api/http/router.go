package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/shopfloor-issues/internal/api/http/handlers"
	"github.com/spec-kit/shopfloor-issues/internal/auth"
	"github.com/spec-kit/shopfloor-issues/internal/domain"
	"github.com/spec-kit/shopfloor-issues/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Issues         *handlers.IssuesHandler
	Analytics      *handlers.AnalyticsHandler
	Categories     *handlers.CategoriesHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Post("/auth/login", cfg.Auth.Login)

	operator := auth.RequireRoleLevel(domain.RoleOperator)
	supervisor := auth.RequireRoleLevel(domain.RoleSupervisor)
	manager := auth.RequireRoleLevel(domain.RoleManager)
	admin := auth.RequireRoleLevel(domain.RoleAdministrator)

	issues := app.Group("/issues", cfg.AuthMiddleware.Handle)
	issues.Post("/", operator, cfg.Issues.CreateIssue)
	issues.Get("/", operator, cfg.Issues.ListIssues)
	issues.Get("/:id", operator, cfg.Issues.GetIssue)
	issues.Post("/:id/escalate", operator, cfg.Issues.EscalateIssue)
	issues.Post("/:id/resolve", supervisor, cfg.Issues.ResolveIssue)
	issues.Get("/:id/history", supervisor, cfg.Issues.IssueHistory)
	issues.Delete("/:id", admin, cfg.Issues.DeleteIssue)

	ai := app.Group("/ai", cfg.AuthMiddleware.Handle)
	ai.Post("/query", supervisor, cfg.Analytics.Query)
	ai.Post("/report", manager, cfg.Analytics.Report)

	categories := app.Group("/categories", cfg.AuthMiddleware.Handle)
	categories.Get("/", operator, cfg.Categories.List)
	categories.Post("/", manager, cfg.Categories.Create)
}
