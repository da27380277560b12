package org

import (
	"encoding/json"

	orgsvc "greenledger-backend/internal/application/org"
	"greenledger-backend/internal/middleware"
	"greenledger-backend/internal/pkg/request"
	"greenledger-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers bundles org handlers with dependencies.
type Handlers struct {
	Service    *orgsvc.Service
	Principals *middleware.PrincipalCache
}

// CreateOrg POST /api/v1/orgs
func (h *Handlers) CreateOrg(c *fiber.Ctx) error {
	var in orgsvc.CreateOrgInput
	if err := request.BindJSON(c, &in); err != nil {
		return response.FromError(c, err)
	}
	p := middleware.GetPrincipal(c)
	org, err := h.Service.CreateOrganization(c.UserContext(), p, in)
	if err != nil {
		return response.FromError(c, err)
	}
	// Role and org changed; the next request must re-resolve the principal.
	if err := h.Principals.Forget(c.UserContext(), p.ProfileID); err != nil {
		log.Warn().Err(err).Msg("Principal cache not cleared after org creation")
	}
	return response.SuccessCreated(c, "Organization created successfully", org, nil)
}

// ViewOrg GET /api/v1/orgs/me
func (h *Handlers) ViewOrg(c *fiber.Ctx) error {
	org, err := h.Service.GetOrganization(c.UserContext(), middleware.GetPrincipal(c).OrgID())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organization fetched successfully", org, nil)
}

// UpdateOrg PATCH /api/v1/orgs/me
func (h *Handlers) UpdateOrg(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := json.Unmarshal(c.Body(), &body); err != nil || len(body) == 0 {
		return response.Error(c, "No update fields provided", fiber.StatusBadRequest, nil)
	}
	org, err := h.Service.UpdateOrganization(c.UserContext(), middleware.GetPrincipal(c).OrgID(), body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Organization updated successfully", org, nil)
}
