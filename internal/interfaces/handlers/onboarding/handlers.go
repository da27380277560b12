package onboarding

import (
	onbsvc "greenledger-backend/internal/application/onboarding"
	"greenledger-backend/internal/middleware"
	"greenledger-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers bundles onboarding handlers with dependencies.
type Handlers struct {
	Service    *onbsvc.Service
	Principals *middleware.PrincipalCache
}

// Bootstrap POST /api/v1/onboarding/bootstrap
func (h *Handlers) Bootstrap(c *fiber.Ctx) error {
	p := middleware.GetPrincipal(c)
	res, err := h.Service.Bootstrap(c.UserContext(), p.ProfileID, p.Email)
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Principals.Forget(c.UserContext(), p.ProfileID); err != nil {
		log.Warn().Err(err).Msg("Principal cache not cleared after onboarding")
	}
	if res.Created {
		return response.SuccessCreated(c, "Organization created", res, nil)
	}
	return response.Success(c, "Onboarding complete", res, nil)
}
