package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-kit/tickets/internal/persistence"
)

const readinessTimeout = 2 * time.Second

// HealthHandler serves the liveness and readiness endpoints.
type HealthHandler struct {
	serviceName string
	version     string
	db          *persistence.Database
	redis       *persistence.Redis
}

// NewHealthHandler returns a new handler instance. redis may be nil when
// Redis is not configured.
func NewHealthHandler(serviceName, version string, db *persistence.Database, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, db: db, redis: redis}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

type dependencyCheck struct {
	name string
	ping func(context.Context) error
	skip bool
}

func (h *HealthHandler) dependencies() []dependencyCheck {
	return []dependencyCheck{
		{name: "database", ping: h.db.Ping},
		{name: "redis", ping: h.redis.Ping, skip: !h.redis.Enabled()},
	}
}

// Ready pings the database and, when configured, Redis. Any failure answers
// 503 with the per-dependency results.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	results := make(map[string]string)
	failed := false
	for _, dep := range h.dependencies() {
		if dep.skip {
			results[dep.name] = "disabled"
			continue
		}
		if err := dep.ping(ctx); err != nil {
			results[dep.name] = err.Error()
			failed = true
			continue
		}
		results[dep.name] = "ok"
	}

	if failed {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "one or more dependencies unavailable",
				"details": results,
			},
		})
	}
	return c.JSON(fiber.Map{"status": "ready", "dependencies": results})
}
