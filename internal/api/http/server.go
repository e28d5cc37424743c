package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/tickets/internal/config"
	"github.com/helpdesk-kit/tickets/internal/observability"
)

// ServerConfig carries what NewApp needs beyond the routes.
type ServerConfig struct {
	App     config.AppConfig
	Session config.SessionConfig
	Views   fiber.Views
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// NewApp builds the fiber application with views, error handling and the
// global middlewares. Routes are added with RegisterRoutes.
func NewApp(cfg ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		Views:                 cfg.Views,
		ErrorHandler:          NewErrorHandler(cfg.Logger, cfg.Metrics),
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, cfg.Logger, cfg.Metrics, cfg.App, cfg.Session)
	return app
}
