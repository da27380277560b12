package profile

import (
	profsvc "greenledger-backend/internal/application/profiles"
	"greenledger-backend/internal/middleware"
	"greenledger-backend/internal/pkg/request"
	"greenledger-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles profile handlers with dependencies.
type Handlers struct {
	Service *profsvc.Service
}

// GetProfile GET /api/v1/profile
func (h *Handlers) GetProfile(c *fiber.Ctx) error {
	p, err := h.Service.GetProfile(c.UserContext(), middleware.GetPrincipal(c).ProfileID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Profile fetched successfully", p, nil)
}

// UpdateProfile PATCH /api/v1/profile
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	var in profsvc.UpdateProfileInput
	if err := request.BindJSON(c, &in); err != nil {
		return response.FromError(c, err)
	}
	p, err := h.Service.UpdateProfile(c.UserContext(), middleware.GetPrincipal(c).ProfileID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Profile updated successfully", p, nil)
}
