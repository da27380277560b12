package onboarding

import (
	"context"
	"errors"
	"fmt"

	"greenledger-backend/internal/application/portfolios"
	"greenledger-backend/internal/application/profiles"
	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/apperrors"
	"greenledger-backend/internal/pkg/constants"
	"greenledger-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service attaches a freshly signed-in profile to an organization.
type Service struct {
	DB *gorm.DB
	// DemoAsset controls whether new organizations get a sample building.
	DemoAsset bool
}

// Result describes what Bootstrap found or created.
type Result struct {
	Organization *domain.Organization `json:"organization"`
	Portfolio    *domain.Portfolio    `json:"portfolio"`
	Asset        *domain.Asset        `json:"asset,omitempty"`
	Profile      *domain.Profile      `json:"profile"`
	Created      bool                 `json:"created"`
	Joined       bool                 `json:"joined"`
}

const (
	demoAssetName  = "Demo Office Building"
	onboardingNote = "Created during onboarding"
)

// Bootstrap ensures the profile belongs to an organization with at least one portfolio.
// Repeated or concurrent calls for one profile produce a single organization.
func (s *Service) Bootstrap(ctx context.Context, profileID uuid.UUID, email string) (*Result, error) {
	var res *Result
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = s.bootstrap(tx, profileID, email)
		return err
	})
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	log.Info().
		Str("profile_id", profileID.String()).
		Str("organization_id", res.Organization.ID.String()).
		Bool("created", res.Created).
		Bool("joined", res.Joined).
		Msg("Onboarding bootstrap complete")
	return res, nil
}

func (s *Service) bootstrap(tx *gorm.DB, profileID uuid.UUID, email string) (*Result, error) {
	profile, err := profiles.FindOrCreate(tx, profileID, email)
	if err != nil {
		return nil, err
	}
	res := &Result{Profile: profile}

	if profile.OrganizationID != nil {
		var org domain.Organization
		if err := tx.Where("id = ?", *profile.OrganizationID).First(&org).Error; err != nil {
			return nil, err
		}
		res.Organization = &org
		res.Portfolio, err = portfolios.EnsureDefault(tx, org.ID, onboardingNote)
		return res, err
	}

	emailDomain := validation.EmailDomain(profile.Email)
	business := validation.IsBusinessDomain(emailDomain)

	if business {
		org, err := findOrg(tx, "domain = ?", emailDomain)
		if err != nil {
			return nil, err
		}
		if org != nil {
			return s.join(tx, res, org)
		}
	}

	key := profileID.String()
	org, err := findOrg(tx, "bootstrap_key = ?", key)
	if err != nil {
		return nil, err
	}
	if org == nil {
		org = &domain.Organization{
			Name:         fmt.Sprintf("%s's Organization", profile.Email),
			BootstrapKey: &key,
		}
		if business {
			org.Domain = &emailDomain
		}
		// Unique bootstrap_key/domain: a racing request that already inserted wins.
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(org)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			if org, err = findOrg(tx, "bootstrap_key = ?", key); err != nil {
				return nil, err
			}
			if org == nil && business {
				if org, err = findOrg(tx, "domain = ?", emailDomain); err != nil {
					return nil, err
				}
				if org != nil {
					return s.join(tx, res, org)
				}
			}
			if org == nil {
				return nil, errors.New("organization insert conflicted but no row found")
			}
		} else {
			res.Created = true
		}
	}
	res.Organization = org

	if res.Portfolio, err = portfolios.EnsureDefault(tx, org.ID, onboardingNote); err != nil {
		return nil, err
	}
	if res.Created && s.DemoAsset {
		if res.Asset, err = createDemoAsset(tx, res.Portfolio.ID); err != nil {
			return nil, err
		}
	}
	if err := attach(tx, profile, org.ID, constants.Owner); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) join(tx *gorm.DB, res *Result, org *domain.Organization) (*Result, error) {
	role := res.Profile.RoleName()
	if role == "" {
		role = constants.Consultant
	}
	if err := attach(tx, res.Profile, org.ID, role); err != nil {
		return nil, err
	}
	p, err := portfolios.EnsureDefault(tx, org.ID, onboardingNote)
	if err != nil {
		return nil, err
	}
	res.Organization = org
	res.Portfolio = p
	res.Joined = true
	return res, nil
}

func findOrg(tx *gorm.DB, query string, arg interface{}) (*domain.Organization, error) {
	var org domain.Organization
	err := tx.Where(query, arg).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func attach(tx *gorm.DB, p *domain.Profile, orgID uuid.UUID, role string) error {
	if err := tx.Model(p).Updates(map[string]interface{}{
		"organization_id": orgID,
		"role":            role,
	}).Error; err != nil {
		return err
	}
	p.OrganizationID = &orgID
	p.Role = &role
	return nil
}

func createDemoAsset(tx *gorm.DB, portfolioID uuid.UUID) (*domain.Asset, error) {
	year := 2010
	rating := "B"
	a := &domain.Asset{
		PortfolioID:  portfolioID,
		Name:         demoAssetName,
		AssetType:    domain.AssetTypeOffice,
		Address:      "123 Main Street, New York, NY 10001",
		TotalArea:    50000,
		YearBuilt:    &year,
		EnergyRating: &rating,
	}
	if err := tx.Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}
