package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/helpdesk-kit/tickets/internal/api/http/handlers"
	"github.com/helpdesk-kit/tickets/internal/auth"
	"github.com/helpdesk-kit/tickets/internal/domain"
	apperrors "github.com/helpdesk-kit/tickets/pkg/util"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	WebAuth        *handlers.WebAuthHandler
	WebTickets     *handlers.WebTicketsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        http.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	registerAPIRoutes(app, cfg)

	// used by the browser extension
	app.Post("/log_user", cfg.AuthMiddleware.Bearer, auth.RequireRole(nil, domain.RoleCompany), cfg.Tickets.LogUser)

	registerPageRoutes(app, cfg)

	app.Use(func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("page", nil)
	})
}

func registerAPIRoutes(app *fiber.App, cfg RouteConfig) {
	api := app.Group("/api/v1")
	api.Post("/auth/register", cfg.Users.Register)
	api.Post("/auth/login", cfg.Users.Login)

	protected := api.Group("", cfg.AuthMiddleware.Bearer, auth.RequireSession(nil))
	protected.Get("/tickets", cfg.Tickets.ListTickets)
	protected.Get("/tickets/mine", auth.RequireRole(nil, domain.RoleRegularUser), cfg.Tickets.ListMyTickets)
	protected.Get("/tickets/:id", cfg.Tickets.GetTicket)

	company := protected.Group("", auth.RequireRole(nil, domain.RoleCompany))
	company.Post("/tickets", cfg.Tickets.CreateTicket)
	company.Post("/tickets/:id/status", cfg.Tickets.UpdateStatus)
	company.Delete("/tickets/:id", cfg.Tickets.DeleteTicket)
	company.Get("/tickets/:id/history", cfg.Tickets.TicketHistory)
}

func registerPageRoutes(app *fiber.App, cfg RouteConfig) {
	pages := app.Group("", cfg.AuthMiddleware.Session)

	pages.Get("/register", cfg.WebAuth.RegisterForm)
	pages.Post("/register", cfg.WebAuth.Register)
	pages.Get("/login", cfg.WebAuth.LoginForm)
	pages.Post("/login", cfg.WebAuth.Login)

	signedIn := auth.RequireSession(handlers.PageDenied)
	company := auth.RequireRole(handlers.PageDenied, domain.RoleCompany)
	regular := auth.RequireRole(handlers.PageDenied, domain.RoleRegularUser)

	pages.Get("/logout", signedIn, cfg.WebAuth.Logout)
	pages.Get("/", signedIn, cfg.WebTickets.Index)
	pages.Get("/mis_tickets", regular, cfg.WebTickets.MyTickets)
	pages.Get("/add_ticket", company, cfg.WebTickets.NewTicketForm)
	pages.Post("/add_ticket", company, cfg.WebTickets.CreateTicket)
	pages.Post("/update_status/:id", company, cfg.WebTickets.UpdateStatus)
	pages.Post("/mark_resolved/:id", company, cfg.WebTickets.MarkResolved)
	pages.Post("/delete_ticket/:id", company, cfg.WebTickets.DeleteTicket)
}
