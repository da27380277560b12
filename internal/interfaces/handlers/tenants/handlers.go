package tenants

import (
	"strings"

	tenantsvc "greenledger-backend/internal/application/tenants"
	"greenledger-backend/internal/middleware"
	"greenledger-backend/internal/pkg/request"
	"greenledger-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers covers tenant assignment and the invitation claim flow.
type Handlers struct {
	Service    *tenantsvc.Service
	Principals *middleware.PrincipalCache
}

type assignRequest struct {
	TenantEmail    string  `json:"tenant_email"`
	AreaOccupied   float64 `json:"area_occupied"`
	LeaseStartDate string  `json:"lease_start_date"`
	LeaseEndDate   *string `json:"lease_end_date"`
	FloorNumber    *int    `json:"floor_number"`
}

func (r assignRequest) input() (tenantsvc.AssignInput, error) {
	in := tenantsvc.AssignInput{
		TenantEmail:  r.TenantEmail,
		AreaOccupied: r.AreaOccupied,
		FloorNumber:  r.FloorNumber,
	}
	if r.LeaseStartDate != "" {
		start, err := request.Date("lease_start_date", r.LeaseStartDate)
		if err != nil {
			return in, err
		}
		in.LeaseStartDate = start
	}
	if r.LeaseEndDate != nil && strings.TrimSpace(*r.LeaseEndDate) != "" {
		end, err := request.Date("lease_end_date", *r.LeaseEndDate)
		if err != nil {
			return in, err
		}
		in.LeaseEndDate = &end
	}
	return in, nil
}

// Assign POST /api/v1/assets/:id/tenants
func (h *Handlers) Assign(c *fiber.Ctx) error {
	assetID, err := request.UUIDParam(c, "id", "Asset")
	if err != nil {
		return response.FromError(c, err)
	}
	var body assignRequest
	if err := request.BindJSON(c, &body); err != nil {
		return response.FromError(c, err)
	}
	in, err := body.input()
	if err != nil {
		return response.FromError(c, err)
	}
	res, err := h.Service.AssignTenant(c.UserContext(), middleware.GetPrincipal(c), assetID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	msg := "Tenant assigned successfully"
	if res.Invitation != nil {
		msg = "Tenant invited successfully"
	}
	return response.SuccessCreated(c, msg, res, nil)
}

// List GET /api/v1/assets/:id/tenants
func (h *Handlers) List(c *fiber.Ctx) error {
	assetID, err := request.UUIDParam(c, "id", "Asset")
	if err != nil {
		return response.FromError(c, err)
	}
	list, err := h.Service.ListTenants(c.UserContext(), middleware.GetPrincipal(c), assetID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Tenants fetched successfully", list, fiber.Map{"count": len(list)})
}

type tokenRequest struct {
	Token string `json:"token"`
}

func bindToken(c *fiber.Ctx) (string, error) {
	var body tokenRequest
	if err := request.BindJSON(c, &body); err != nil {
		return "", err
	}
	return strings.TrimSpace(body.Token), nil
}

// CheckToken POST /api/v1/invitations/public/check-token
func (h *Handlers) CheckToken(c *fiber.Ctx) error {
	token, err := bindToken(c)
	if err != nil {
		return response.FromError(c, err)
	}
	if token == "" {
		return response.Error(c, "token is required", fiber.StatusBadRequest, nil)
	}
	res, err := h.Service.CheckInvitation(c.UserContext(), token)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invitation is valid", res, nil)
}

// Accept POST /api/v1/invitations/accept
func (h *Handlers) Accept(c *fiber.Ctx) error {
	token, err := bindToken(c)
	if err != nil {
		return response.FromError(c, err)
	}
	if token == "" {
		return response.Error(c, "token is required", fiber.StatusBadRequest, nil)
	}
	p := middleware.GetPrincipal(c)
	res, err := h.Service.AcceptInvitation(c.UserContext(), p, token)
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Principals.Forget(c.UserContext(), p.ProfileID); err != nil {
		log.Warn().Err(err).Msg("Principal cache not cleared after accepting invitation")
	}
	return response.Success(c, "Invitation accepted", res, nil)
}

// Revoke PATCH /api/v1/invitations/:id/revoke
func (h *Handlers) Revoke(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id", "Invitation")
	if err != nil {
		return response.FromError(c, err)
	}
	inv, err := h.Service.RevokeInvitation(c.UserContext(), middleware.GetPrincipal(c).OrgID(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Invitation revoked", inv, nil)
}
