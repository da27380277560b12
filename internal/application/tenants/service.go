package tenants

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"greenledger-backend/internal/application/assets"
	"greenledger-backend/internal/application/emails"
	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/apperrors"
	"greenledger-backend/internal/pkg/constants"
	"greenledger-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// InvitationTTL is how long a claim link stays valid.
const InvitationTTL = 7 * 24 * time.Hour

// Service assigns tenants to assets and runs the invitation claim flow.
type Service struct {
	DB      *gorm.DB
	Mailer  emails.Sender
	BaseURL string
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// AssignInput describes one tenancy.
type AssignInput struct {
	TenantEmail    string     `json:"tenant_email" validate:"required,email"`
	AreaOccupied   float64    `json:"area_occupied" validate:"gt=0"`
	LeaseStartDate time.Time  `json:"lease_start_date" validate:"required"`
	LeaseEndDate   *time.Time `json:"lease_end_date"`
	FloorNumber    *int       `json:"floor_number" validate:"omitempty,gte=-10,lte=300"`
}

// AssignResult is the stored tenancy plus, for unknown emails, the invitation.
type AssignResult struct {
	Tenant     *domain.AssetTenant `json:"tenant"`
	Invitation *domain.Invitation  `json:"invitation,omitempty"`
	InviteLink string              `json:"invite_link,omitempty"`
}

// AssignTenant links a tenant to an asset. Known profiles are linked directly; other
// addresses get an invitation and an invited tenancy in the same transaction.
func (s *Service) AssignTenant(ctx context.Context, caller *domain.Principal, assetID uuid.UUID, in AssignInput) (*AssignResult, error) {
	in.TenantEmail = validation.NormalizeEmail(in.TenantEmail)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.LeaseEndDate != nil && in.LeaseEndDate.Before(in.LeaseStartDate) {
		return nil, apperrors.Validation("lease_end_date must not be before lease_start_date").
			WithMeta("lease_end_date", "must not be before lease_start_date")
	}

	var (
		res     = &AssignResult{}
		token   string
		asset   *domain.Asset
		orgName string
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		asset, err = assets.Find(tx, caller.OrgID(), assetID)
		if err != nil {
			return err
		}
		if in.AreaOccupied > asset.TotalArea {
			return apperrors.Validation("area_occupied must not exceed the asset's total_area").
				WithMeta("area_occupied", fmt.Sprintf("must be at most %g", asset.TotalArea))
		}

		var dup int64
		if err := tx.Model(&domain.AssetTenant{}).
			Where("asset_id = ? AND tenant_email = ? AND status IN ?", assetID, in.TenantEmail,
				[]string{domain.TenantStatusActive, domain.TenantStatusInvited}).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return apperrors.Conflict("Tenant is already assigned to this asset")
		}

		tenancy := &domain.AssetTenant{
			AssetID:        assetID,
			TenantEmail:    in.TenantEmail,
			FloorNumber:    in.FloorNumber,
			AreaOccupied:   in.AreaOccupied,
			LeaseStartDate: in.LeaseStartDate,
			LeaseEndDate:   in.LeaseEndDate,
		}

		var profile domain.Profile
		err = tx.Where("email = ?", in.TenantEmail).First(&profile).Error
		switch {
		case err == nil:
			tenancy.TenantID = &profile.ID
			tenancy.Status = domain.TenantStatusActive
			tenancy.Tenant = &profile
		case errors.Is(err, gorm.ErrRecordNotFound):
			selector, t, hash, err := newToken()
			if err != nil {
				return err
			}
			inv := &domain.Invitation{
				OrganizationID: caller.OrgID(),
				AssetID:        assetID,
				Email:          in.TenantEmail,
				Selector:       selector,
				VerifierHash:   hash,
				Status:         domain.InvitationPending,
				CreatedBy:      caller.ProfileID,
				ExpiresAt:      s.now().Add(InvitationTTL),
			}
			if err := tx.Create(inv).Error; err != nil {
				return err
			}
			token = t
			res.Invitation = inv
			tenancy.InvitationID = &inv.ID
			tenancy.Status = domain.TenantStatusInvited
		default:
			return err
		}

		if err := tx.Create(tenancy).Error; err != nil {
			return err
		}
		res.Tenant = tenancy

		var org domain.Organization
		if err := tx.Select("name").Where("id = ?", caller.OrgID()).First(&org).Error; err == nil {
			orgName = org.Name
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Persistence(err)
	}

	if res.Invitation != nil {
		res.InviteLink = s.inviteLink(token)
		s.sendInvite(ctx, emails.TenantInvite{
			To:        in.TenantEmail,
			OrgName:   orgName,
			AssetName: asset.Name,
			Link:      res.InviteLink,
			ExpiresAt: res.Invitation.ExpiresAt,
		})
	}
	log.Info().
		Str("asset_id", assetID.String()).
		Str("status", res.Tenant.Status).
		Msg("Tenant assigned")
	return res, nil
}

func (s *Service) inviteLink(token string) string {
	base := strings.TrimRight(s.BaseURL, "/")
	return base + "/invitations/accept?token=" + url.QueryEscape(token)
}

func (s *Service) sendInvite(ctx context.Context, in emails.TenantInvite) {
	if s.Mailer == nil {
		return
	}
	if err := s.Mailer.SendTenantInvite(ctx, in); err != nil {
		log.Warn().Err(err).Str("to", in.To).Msg("Tenant invitation email failed")
	}
}

// ListTenants returns the asset's tenancies with their profiles. Tenant-role callers
// only see their own tenancy.
func (s *Service) ListTenants(ctx context.Context, caller *domain.Principal, assetID uuid.UUID) ([]domain.AssetTenant, error) {
	if _, err := assets.FindFor(s.DB.WithContext(ctx), caller, assetID); err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).
		Preload("Tenant").
		Where("asset_id = ?", assetID)
	if caller.Role == constants.Tenant {
		q = q.Where("tenant_id = ?", caller.ProfileID)
	}
	list := []domain.AssetTenant{}
	if err := q.Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, apperrors.Persistence(err)
	}
	return list, nil
}

// CheckResult is what an unauthenticated invitee may learn from a token.
type CheckResult struct {
	Email            string    `json:"email"`
	OrganizationName string    `json:"organization_name"`
	AssetName        string    `json:"asset_name"`
	ExpiresAt        time.Time `json:"expires_at"`
	Valid            bool      `json:"valid"`
}

// loadPending resolves a token to a pending, unexpired invitation.
func (s *Service) loadPending(tx *gorm.DB, token string) (*domain.Invitation, error) {
	selector, verifier, ok := splitToken(token)
	if !ok {
		return nil, apperrors.NotFound("Invalid invitation token")
	}
	var inv domain.Invitation
	if err := tx.Where("selector = ?", selector).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Invalid invitation token")
		}
		return nil, err
	}
	if !verify(inv.VerifierHash, verifier) {
		return nil, apperrors.NotFound("Invalid invitation token")
	}
	if inv.Status != domain.InvitationPending {
		return &inv, apperrors.Conflict("Invitation is no longer valid")
	}
	if inv.ExpiresAt.Before(s.now()) {
		return &inv, apperrors.Conflict("Invitation has expired")
	}
	return &inv, nil
}

// CheckInvitation validates a token without consuming it.
func (s *Service) CheckInvitation(ctx context.Context, token string) (*CheckResult, error) {
	db := s.DB.WithContext(ctx)
	inv, err := s.loadPending(db, token)
	if err != nil {
		if inv != nil && inv.Status == domain.InvitationPending {
			s.expire(db, inv)
		}
		return nil, apperrors.Persistence(err)
	}

	out := &CheckResult{Email: inv.Email, ExpiresAt: inv.ExpiresAt, Valid: true}
	var org domain.Organization
	if err := db.Where("id = ?", inv.OrganizationID).First(&org).Error; err == nil {
		out.OrganizationName = org.Name
	}
	var asset domain.Asset
	if err := db.Where("id = ?", inv.AssetID).First(&asset).Error; err == nil {
		out.AssetName = asset.Name
	}
	return out, nil
}

func (s *Service) expire(db *gorm.DB, inv *domain.Invitation) {
	if err := db.Model(inv).Update("status", domain.InvitationExpired).Error; err != nil {
		log.Warn().Err(err).Str("invitation_id", inv.ID.String()).Msg("Failed to mark invitation expired")
	}
}

// AcceptResult tells the caller where they now belong.
type AcceptResult struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	AssetID        uuid.UUID `json:"asset_id"`
	Role           string    `json:"role"`
}

// AcceptInvitation claims a tenancy for the signed-in caller whose email must match.
// Callers without an organization join the inviting one as tenant.
func (s *Service) AcceptInvitation(ctx context.Context, caller *domain.Principal, token string) (*AcceptResult, error) {
	var res *AcceptResult
	var expired *domain.Invitation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.loadPending(tx, token)
		if err != nil {
			if inv != nil && inv.Status == domain.InvitationPending {
				expired = inv
			}
			return err
		}
		if !strings.EqualFold(inv.Email, caller.Email) {
			return apperrors.Forbidden("Invitation email does not match the signed-in user")
		}

		var profile domain.Profile
		if err := tx.Where("id = ?", caller.ProfileID).First(&profile).Error; err != nil {
			return err
		}
		role := profile.RoleName()
		switch {
		case profile.OrganizationID == nil:
			role = constants.Tenant
			if err := tx.Model(&profile).Updates(map[string]interface{}{
				"organization_id": inv.OrganizationID,
				"role":            role,
			}).Error; err != nil {
				return err
			}
		case *profile.OrganizationID != inv.OrganizationID:
			return apperrors.Forbidden("Profile already belongs to another organization")
		}

		if err := tx.Model(&domain.AssetTenant{}).
			Where("invitation_id = ? AND status = ?", inv.ID, domain.TenantStatusInvited).
			Updates(map[string]interface{}{
				"tenant_id": caller.ProfileID,
				"status":    domain.TenantStatusActive,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(inv).Update("status", domain.InvitationAccepted).Error; err != nil {
			return err
		}
		res = &AcceptResult{OrganizationID: inv.OrganizationID, AssetID: inv.AssetID, Role: role}
		return nil
	})
	if expired != nil {
		s.expire(s.DB.WithContext(ctx), expired)
	}
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return res, nil
}

// RevokeInvitation cancels a pending invitation and its invited tenancy.
func (s *Service) RevokeInvitation(ctx context.Context, orgID, invitationID uuid.UUID) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND organization_id = ?", invitationID, orgID).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Invitation not found")
			}
			return err
		}
		if inv.Status != domain.InvitationPending {
			return apperrors.Conflict("Only pending invitations can be revoked")
		}
		if err := tx.Model(&inv).Update("status", domain.InvitationRevoked).Error; err != nil {
			return err
		}
		inv.Status = domain.InvitationRevoked
		return tx.Model(&domain.AssetTenant{}).
			Where("invitation_id = ? AND status = ?", inv.ID, domain.TenantStatusInvited).
			Update("status", domain.TenantStatusRevoked).Error
	})
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return &inv, nil
}
