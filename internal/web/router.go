package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tracklite/ticket-tracker/internal/auth"
	"github.com/tracklite/ticket-tracker/internal/repository"
	"github.com/tracklite/ticket-tracker/internal/web/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Tickets        *handlers.TicketsHandler
	Accounts       *handlers.AccountsHandler
	Health         *handlers.HealthHandler
	AuthMiddleware *auth.Middleware
	TicketRepo     repository.TicketRepository
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	accounts := app.Group("/accounts")
	accounts.Get("/register/", cfg.Accounts.RegisterPage)
	accounts.Post("/register/", cfg.Accounts.Register)
	accounts.Get("/login/", cfg.Accounts.LoginPage)
	accounts.Post("/login/", cfg.Accounts.Login)
	accounts.Post("/logout/", cfg.AuthMiddleware.RequireAuthenticated, cfg.Accounts.Logout)
	accounts.Get("/password_reset/", cfg.Accounts.PasswordResetPage)
	accounts.Post("/password_reset/", cfg.Accounts.PasswordReset)
	accounts.Get("/password_reset/confirm/", cfg.Accounts.PasswordResetConfirmPage)
	accounts.Post("/password_reset/confirm/", cfg.Accounts.PasswordResetConfirm)

	protected := app.Group("", cfg.AuthMiddleware.RequireAuthenticated)
	protected.Get("/", cfg.Tickets.List)
	protected.Get("/ticket/new/", cfg.Tickets.NewForm)
	protected.Post("/ticket/new/", cfg.Tickets.Create)
	protected.Get("/ticket/:id/", cfg.Tickets.Detail)

	// status updates run the full guard chain in fixed order: session
	// principal, developer role, assigned developer. GET is routed so the
	// handler can fall back to a redirect.
	statusGuards := []fiber.Handler{
		auth.RequireDeveloper(),
		auth.RequireAssignedDeveloper(cfg.TicketRepo),
	}
	protected.Get("/ticket/:id/update_status/", append(statusGuards, cfg.Tickets.UpdateStatus)...)
	protected.Post("/ticket/:id/update_status/", append(statusGuards, cfg.Tickets.UpdateStatus)...)
}
