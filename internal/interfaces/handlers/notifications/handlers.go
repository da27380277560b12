package notifications

import (
	notifsvc "greenledger-backend/internal/application/notifications"
	"greenledger-backend/internal/middleware"
	"greenledger-backend/internal/pkg/request"
	"greenledger-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles notification handlers with the service.
type Handlers struct {
	Service *notifsvc.Service
}

// List GET /api/v1/notifications?unread=true
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.Service.List(c.UserContext(), middleware.GetPrincipal(c).ProfileID, c.QueryBool("unread"))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Notifications fetched successfully", list, fiber.Map{"count": len(list)})
}

// MarkRead PATCH /api/v1/notifications/:id/read
func (h *Handlers) MarkRead(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id", "Notification")
	if err != nil {
		return response.FromError(c, err)
	}
	n, err := h.Service.MarkRead(c.UserContext(), middleware.GetPrincipal(c).ProfileID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Notification marked as read", n, nil)
}

// MarkAllRead PATCH /api/v1/notifications/read-all
func (h *Handlers) MarkAllRead(c *fiber.Ctx) error {
	n, err := h.Service.MarkAllRead(c.UserContext(), middleware.GetPrincipal(c).ProfileID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Notifications marked as read", fiber.Map{"updated": n}, nil)
}
