package middleware

import (
	"time"

	"greenledger-backend/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request count and latency by route template.
func Metrics(m *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		route := c.Route().Path
		if route == "" || route == "/" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Method(), route, status, time.Since(start))
		return err
	}
}
