package portfolios

import (
	assetsvc "greenledger-backend/internal/application/assets"
	portsvc "greenledger-backend/internal/application/portfolios"
	"greenledger-backend/internal/middleware"
	"greenledger-backend/internal/pkg/request"
	"greenledger-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles portfolio handlers with dependencies.
type Handlers struct {
	Service *portsvc.Service
	Assets  *assetsvc.Service
}

// List GET /api/v1/portfolios
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.Service.ListPortfolios(c.UserContext(), middleware.GetPrincipal(c).OrgID())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Portfolios fetched successfully", list, fiber.Map{"count": len(list)})
}

// Create POST /api/v1/portfolios
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in portsvc.CreateInput
	if err := request.BindJSON(c, &in); err != nil {
		return response.FromError(c, err)
	}
	p, err := h.Service.CreatePortfolio(c.UserContext(), middleware.GetPrincipal(c).OrgID(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Portfolio created successfully", p, nil)
}

// ListAssets GET /api/v1/portfolios/:id/assets
func (h *Handlers) ListAssets(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id", "Portfolio")
	if err != nil {
		return response.FromError(c, err)
	}
	list, err := h.Assets.ListAssets(c.UserContext(), middleware.GetPrincipal(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Assets fetched successfully", list, fiber.Map{"count": len(list)})
}
