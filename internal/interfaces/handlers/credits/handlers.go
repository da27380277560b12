package credits

import (
	creditsvc "greenledger-backend/internal/application/credits"
	"greenledger-backend/internal/middleware"
	"greenledger-backend/internal/pkg/request"
	"greenledger-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles project and credit ledger handlers.
type Handlers struct {
	Service *creditsvc.Service
}

// ListProjects GET /api/v1/projects
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	list, err := h.Service.ListProjects(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Projects fetched successfully", list, fiber.Map{"count": len(list)})
}

// GetProject GET /api/v1/projects/:id
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id", "Project")
	if err != nil {
		return response.FromError(c, err)
	}
	p, err := h.Service.GetProject(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Project fetched successfully", p, nil)
}

// Purchase POST /api/v1/credits/purchase
func (h *Handlers) Purchase(c *fiber.Ctx) error {
	var in creditsvc.PurchaseInput
	if err := request.BindJSON(c, &in); err != nil {
		return response.FromError(c, err)
	}
	res, err := h.Service.PurchaseCredits(c.UserContext(), middleware.GetPrincipal(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Credit purchase initiated", res, nil)
}

// Use POST /api/v1/credits/use
func (h *Handlers) Use(c *fiber.Ctx) error {
	var in creditsvc.UseInput
	if err := request.BindJSON(c, &in); err != nil {
		return response.FromError(c, err)
	}
	credit, err := h.Service.UseCredits(c.UserContext(), middleware.GetPrincipal(c), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Credits used successfully", credit, nil)
}

// List GET /api/v1/credits
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.Service.ListCredits(c.UserContext(), middleware.GetPrincipal(c).ProfileID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Credits fetched successfully", list, fiber.Map{"count": len(list)})
}

// Summary GET /api/v1/credits/summary
func (h *Handlers) Summary(c *fiber.Ctx) error {
	sum, err := h.Service.GetCreditSummary(c.UserContext(), middleware.GetPrincipal(c).ProfileID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Credit summary fetched successfully", sum, nil)
}
