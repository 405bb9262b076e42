package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Customers      *handlers.CustomersHandler
	Tickets        *handlers.TicketsHandler
	AuthMiddleware *auth.Middleware
	UploadsDir     string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.UploadsDir != "" {
		app.Static("/uploads", cfg.UploadsDir)
	}

	api := app.Group("/api")

	users := api.Group("/users")
	users.Post("/register", cfg.Users.Register)
	users.Post("/login", cfg.Users.Login)
	users.Post("/password-reset/request", cfg.Users.RequestPasswordReset)
	users.Post("/password-reset/confirm", cfg.Users.ConfirmPasswordReset)
	users.Get("/profile", cfg.AuthMiddleware.Handle, cfg.Users.Profile)
	users.Put("/profile", cfg.AuthMiddleware.Handle, cfg.Users.UpdateProfile)

	customers := api.Group("/customers", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAgent, domain.RoleAdmin))
	customers.Get("/", cfg.Customers.List)
	customers.Get("/:id", cfg.Customers.Get)

	tickets := api.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("/", cfg.Tickets.List)
	// Registered before /:id so "stats" is not captured as a ticket id.
	tickets.Get("/stats", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.Stats)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Put("/:id/status", auth.RequireRole(domain.RoleAgent, domain.RoleAdmin), cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/notes", cfg.Tickets.AddNote)
}
