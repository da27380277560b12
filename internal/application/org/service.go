package org

import (
	"context"
	"errors"
	"strings"

	"greenledger-backend/internal/application/portfolios"
	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/apperrors"
	"greenledger-backend/internal/pkg/constants"
	"greenledger-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service encapsulates organization operations.
type Service struct {
	DB *gorm.DB
}

// CreateOrgInput is the body of POST /orgs.
type CreateOrgInput struct {
	Name               string  `json:"name" validate:"required,max=200"`
	RegistrationNumber *string `json:"registration_number" validate:"omitempty,max=100"`
	Address            *string `json:"address" validate:"omitempty,max=500"`
	Domain             *string `json:"domain" validate:"omitempty,fqdn"`
}

// Member is the public view of a profile inside an organization.
type Member struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  *string   `json:"role"`
}

// OrganizationView is an organization with its members.
type OrganizationView struct {
	domain.Organization
	Members []Member `json:"members"`
}

// CreateOrganization creates an organization with a default portfolio and makes the
// caller its owner. Only profiles without an organization may call it.
func (s *Service) CreateOrganization(ctx context.Context, caller *domain.Principal, in CreateOrgInput) (*domain.Organization, error) {
	if caller.HasOrg() {
		return nil, apperrors.Conflict("Profile already belongs to an organization")
	}
	in.Name = validation.CleanText(in.Name)
	if in.Domain != nil {
		d := strings.ToLower(strings.TrimSpace(*in.Domain))
		in.Domain = &d
		if d == "" {
			in.Domain = nil
		}
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Domain != nil {
		if !validation.IsBusinessDomain(*in.Domain) {
			return nil, apperrors.Validation("domain must not be a public email provider")
		}
		if validation.EmailDomain(caller.Email) != *in.Domain {
			return nil, apperrors.Validation("domain must match your email address")
		}
	}

	org := &domain.Organization{
		Name:               in.Name,
		RegistrationNumber: validation.CleanOptional(in.RegistrationNumber),
		Address:            validation.CleanOptional(in.Address),
		Domain:             in.Domain,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.Domain != nil {
			var n int64
			if err := tx.Model(&domain.Organization{}).Where("domain = ?", *in.Domain).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return apperrors.Conflict("An organization already exists for this domain")
			}
		}
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		if _, err := portfolios.EnsureDefault(tx, org.ID, ""); err != nil {
			return err
		}
		res := tx.Model(&domain.Profile{}).
			Where("id = ? AND organization_id IS NULL", caller.ProfileID).
			Updates(map[string]interface{}{"organization_id": org.ID, "role": constants.Owner})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.Conflict("Profile already belongs to an organization")
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return org, nil
}

// GetOrganization returns the organization and its members.
func (s *Service) GetOrganization(ctx context.Context, orgID uuid.UUID) (*OrganizationView, error) {
	if orgID == uuid.Nil {
		return nil, apperrors.Forbidden("Profile is not attached to an organization")
	}
	var org domain.Organization
	if err := s.DB.WithContext(ctx).Where("id = ?", orgID).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Organization not found")
		}
		return nil, apperrors.Persistence(err)
	}

	members := []Member{}
	if err := s.DB.WithContext(ctx).
		Model(&domain.Profile{}).
		Select("id, email, role").
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Scan(&members).Error; err != nil {
		return nil, apperrors.Persistence(err)
	}
	return &OrganizationView{Organization: org, Members: members}, nil
}

var updatable = map[string]bool{
	"name":                true,
	"registration_number": true,
	"address":             true,
}

// UpdateOrganization applies the allowed fields. Unknown keys are ignored.
func (s *Service) UpdateOrganization(ctx context.Context, orgID uuid.UUID, fields map[string]interface{}) (*domain.Organization, error) {
	if orgID == uuid.Nil {
		return nil, apperrors.Forbidden("Profile is not attached to an organization")
	}
	valid := make(map[string]interface{})
	for k, v := range fields {
		if !updatable[k] {
			continue
		}
		switch val := v.(type) {
		case nil:
			if k == "name" {
				return nil, apperrors.Validation("name is required")
			}
			valid[k] = nil
		case string:
			clean := validation.CleanText(val)
			if k == "name" && clean == "" {
				return nil, apperrors.Validation("name is required")
			}
			if clean == "" {
				valid[k] = nil
			} else {
				valid[k] = clean
			}
		default:
			return nil, apperrors.Validation(k + " must be a string")
		}
	}
	if len(valid) == 0 {
		return nil, apperrors.Validation("No valid fields to update")
	}

	result := s.DB.WithContext(ctx).Model(&domain.Organization{}).Where("id = ?", orgID).Updates(valid)
	if result.Error != nil {
		return nil, apperrors.Persistence(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NotFound("Organization not found")
	}

	var org domain.Organization
	if err := s.DB.WithContext(ctx).Where("id = ?", orgID).First(&org).Error; err != nil {
		return nil, apperrors.Persistence(err)
	}
	return &org, nil
}
