package health

import (
	"crypto/subtle"

	healthsvc "greenledger-backend/internal/application/health"
	"greenledger-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Service        *healthsvc.Service
	HealthAdminKey string
}

func (h *Handlers) authorized(c *fiber.Ctx) bool {
	key := c.Get("X-Admin-Key")
	if key == "" {
		key = c.Query("key")
	}
	return h.HealthAdminKey != "" && key != "" &&
		subtle.ConstantTimeCompare([]byte(key), []byte(h.HealthAdminKey)) == 1
}

// Reset clears health stats in Redis. Requires HEALTH_ADMIN_KEY via X-Admin-Key or ?key=.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	if !h.authorized(c) {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	if h.Service.Rdb == nil {
		return response.Error(c, "Redis is not configured", fiber.StatusServiceUnavailable, nil)
	}
	if err := h.Service.Reset(c.UserContext()); err != nil {
		log.Error().Err(err).Msg("Health reset failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

// JSON returns the health report. Status is 503 when a required dependency is down.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	report := h.Service.Collect(c.UserContext())
	status := fiber.StatusOK
	if report.Status != "ok" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}

// Errors returns the last server errors recorded by the health marker.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	if !h.authorized(c) {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	if h.Service.Rdb == nil {
		return c.JSON([]interface{}{})
	}
	entries, err := h.Service.Errors(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON([]interface{}{})
	}
	return c.JSON(entries)
}

// Dashboard renders the HTML status page.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	html, err := healthsvc.RenderDashboard(h.Service.Collect(c.UserContext()))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}
