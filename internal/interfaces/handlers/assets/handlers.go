package assets

import (
	assetsvc "greenledger-backend/internal/application/assets"
	"greenledger-backend/internal/middleware"
	"greenledger-backend/internal/pkg/request"
	"greenledger-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles asset handlers with dependencies.
type Handlers struct {
	Service *assetsvc.Service
}

// Create POST /api/v1/assets
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in assetsvc.CreateInput
	if err := request.BindJSON(c, &in); err != nil {
		return response.FromError(c, err)
	}
	a, err := h.Service.CreateAsset(c.UserContext(), middleware.GetPrincipal(c).OrgID(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Asset created successfully", a, nil)
}

// Get GET /api/v1/assets/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id", "Asset")
	if err != nil {
		return response.FromError(c, err)
	}
	a, err := h.Service.GetAsset(c.UserContext(), middleware.GetPrincipal(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Asset fetched successfully", a, nil)
}

// Update PATCH /api/v1/assets/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id", "Asset")
	if err != nil {
		return response.FromError(c, err)
	}
	var in assetsvc.UpdateInput
	if err := request.BindJSON(c, &in); err != nil {
		return response.FromError(c, err)
	}
	a, err := h.Service.UpdateAsset(c.UserContext(), middleware.GetPrincipal(c).OrgID(), id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Asset updated successfully", a, nil)
}
