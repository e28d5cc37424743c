package http

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/helpdesk-kit/tickets/internal/api/http/handlers"
	"github.com/helpdesk-kit/tickets/internal/config"
	"github.com/helpdesk-kit/tickets/internal/observability"
	"github.com/helpdesk-kit/tickets/internal/view"
	apperrors "github.com/helpdesk-kit/tickets/pkg/util"
)

// RegisterMiddlewares attaches global middlewares. RequestLogger is outermost
// so it sees the final status written by the error handler.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, appCfg config.AppConfig, sessionCfg config.SessionConfig) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			logger.Error("panic recovered",
				zap.String("request_id", observability.RequestID(c)),
				zap.Any("panic", e),
				zap.StackSkip("stack", 3),
			)
		},
	}))
	if timeout := appCfg.RequestTimeout(); timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	if sessionCfg.CSRFEnabled {
		app.Use(csrfMiddleware(sessionCfg))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func csrfMiddleware(cfg config.SessionConfig) fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "form:" + view.CSRFFormField,
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		CookieHTTPOnly: true,
		Expiration:     cfg.TTL(),
		ContextKey:     view.CSRFContextKey,
		Next:           isJSONRequest,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return apperrors.NewForbidden("the form expired, please try again")
		},
	})
}

// isJSONRequest reports whether the route answers with JSON rather than pages.
func isJSONRequest(c *fiber.Ctx) bool {
	path := c.Path()
	return strings.HasPrefix(path, "/api/") ||
		strings.HasPrefix(path, "/health/") ||
		path == "/metrics" ||
		path == "/log_user"
}

// NewErrorHandler renders failures as a JSON envelope for API routes and as
// pages, redirects or flash messages for the browser routes.
func NewErrorHandler(logger *zap.Logger, metrics *observability.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		domainErr := normalizeError(err)
		metrics.RecordError(routeOf(c), c.Method(), domainErr.Code)
		if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("request_id", observability.RequestID(c)),
				zap.String("path", c.Path()),
				zap.Error(domainErr),
			)
		}

		if isJSONRequest(c) {
			return writeJSONError(c, domainErr)
		}
		return writePageError(c, domainErr)
	}
}

func writeJSONError(c *fiber.Ctx, domainErr *apperrors.DomainError) error {
	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
}

func writePageError(c *fiber.Ctx, domainErr *apperrors.DomainError) error {
	switch {
	case domainErr.Code == apperrors.CodeNotFound:
		return view.Render(c, fiber.StatusNotFound, "404.html", nil)
	case domainErr.HTTPStatus < fiber.StatusInternalServerError:
		return handlers.PageDenied(c, domainErr)
	}

	if renderErr := view.Render(c, fiber.StatusInternalServerError, "500.html", fiber.Map{
		"request_id": observability.RequestID(c),
	}); renderErr != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("internal server error")
	}
	return nil
}

// normalizeError folds fiber's own errors into the domain error codes.
func normalizeError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case fiber.StatusNotFound:
			return apperrors.NewNotFound("page", nil).(*apperrors.DomainError)
		case fiber.StatusUnauthorized:
			return apperrors.NewUnauthorized(fiberErr.Message).(*apperrors.DomainError)
		case fiber.StatusForbidden:
			return apperrors.NewForbidden(fiberErr.Message).(*apperrors.DomainError)
		}
		if fiberErr.Code < fiber.StatusInternalServerError {
			return apperrors.NewDomainError(apperrors.CodeValidationFailed, fiberErr.Message, fiberErr.Code, nil)
		}
		return apperrors.NewInternalError(fmt.Errorf("fiber: %w", err)).(*apperrors.DomainError)
	}
	return apperrors.ToDomainError(err)
}

func routeOf(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" {
		return r.Path
	}
	return c.Path()
}
