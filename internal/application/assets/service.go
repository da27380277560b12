package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"greenledger-backend/internal/application/portfolios"
	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/apperrors"
	roles "greenledger-backend/internal/pkg/constants"
	"greenledger-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const minYearBuilt = 1800

// Service reads and writes assets through their portfolio's organization.
type Service struct {
	DB *gorm.DB
}

// CreateInput is the body of POST /assets.
type CreateInput struct {
	PortfolioID  uuid.UUID `json:"portfolio_id" validate:"required"`
	Name         string    `json:"name" validate:"required,max=200"`
	AssetType    string    `json:"asset_type" validate:"required"`
	Address      string    `json:"address" validate:"required,max=500"`
	TotalArea    float64   `json:"total_area" validate:"gt=0"`
	YearBuilt    *int      `json:"year_built"`
	EnergyRating *string   `json:"energy_rating" validate:"omitempty,max=10"`
}

// UpdateInput holds optional asset fields. Nil means unchanged.
type UpdateInput struct {
	Name         *string  `json:"name" validate:"omitempty,max=200"`
	AssetType    *string  `json:"asset_type"`
	Address      *string  `json:"address" validate:"omitempty,max=500"`
	TotalArea    *float64 `json:"total_area"`
	YearBuilt    *int     `json:"year_built"`
	EnergyRating *string  `json:"energy_rating" validate:"omitempty,max=10"`
}

func checkYear(y *int) error {
	if y == nil {
		return nil
	}
	if *y < minYearBuilt || *y > time.Now().Year()+5 {
		return apperrors.Validation("year_built is out of range").WithMeta("year_built", "year_built is out of range")
	}
	return nil
}

func checkType(t string) error {
	if !domain.IsValidAssetType(t) {
		return apperrors.Validation("asset_type is invalid").WithMeta("asset_type", domain.AssetTypes)
	}
	return nil
}

// scoped restricts an asset query to orgID through the portfolio join.
func scoped(db *gorm.DB, orgID uuid.UUID) *gorm.DB {
	return db.Joins("JOIN portfolios ON portfolios.id = assets.portfolio_id").
		Where("portfolios.organization_id = ?", orgID)
}

// Occupied narrows an asset query to the assets a tenant-role caller holds an active
// tenancy on. Other roles see every asset of their organization.
func Occupied(db *gorm.DB, caller *domain.Principal) *gorm.DB {
	if caller == nil || caller.Role != roles.Tenant {
		return db
	}
	tenancies := db.Session(&gorm.Session{NewDB: true}).
		Model(&domain.AssetTenant{}).
		Select("asset_id").
		Where("tenant_id = ? AND status = ?", caller.ProfileID, domain.TenantStatusActive)
	return db.Where("assets.id IN (?)", tenancies)
}

// ListAssets returns the assets of a portfolio the caller's organization owns.
func (s *Service) ListAssets(ctx context.Context, caller *domain.Principal, portfolioID uuid.UUID) ([]domain.Asset, error) {
	ps := &portfolios.Service{DB: s.DB}
	if _, err := ps.GetPortfolio(ctx, caller.OrgID(), portfolioID); err != nil {
		return nil, err
	}
	list := []domain.Asset{}
	if err := Occupied(s.DB.WithContext(ctx), caller).
		Where("portfolio_id = ?", portfolioID).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, apperrors.Persistence(err)
	}
	return list, nil
}

// CreateAsset validates every field before writing; nothing is stored on failure.
func (s *Service) CreateAsset(ctx context.Context, orgID uuid.UUID, in CreateInput) (*domain.Asset, error) {
	in.Name = validation.CleanText(in.Name)
	in.Address = validation.CleanText(in.Address)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := checkType(in.AssetType); err != nil {
		return nil, err
	}
	if err := checkYear(in.YearBuilt); err != nil {
		return nil, err
	}
	ps := &portfolios.Service{DB: s.DB}
	if _, err := ps.GetPortfolio(ctx, orgID, in.PortfolioID); err != nil {
		return nil, err
	}

	a := &domain.Asset{
		PortfolioID:  in.PortfolioID,
		Name:         in.Name,
		AssetType:    in.AssetType,
		Address:      in.Address,
		TotalArea:    in.TotalArea,
		YearBuilt:    in.YearBuilt,
		EnergyRating: validation.CleanOptional(in.EnergyRating),
	}
	if err := s.DB.WithContext(ctx).Create(a).Error; err != nil {
		return nil, apperrors.Persistence(err)
	}
	return a, nil
}

// GetAsset returns NotFound for assets the caller may not see.
func (s *Service) GetAsset(ctx context.Context, caller *domain.Principal, assetID uuid.UUID) (*domain.Asset, error) {
	return FindFor(s.DB.WithContext(ctx), caller, assetID)
}

// FindFor is Find narrowed by Occupied.
func FindFor(db *gorm.DB, caller *domain.Principal, assetID uuid.UUID) (*domain.Asset, error) {
	return Find(Occupied(db, caller), caller.OrgID(), assetID)
}

// Find loads an asset visible to orgID using db, which may be a transaction.
func Find(db *gorm.DB, orgID, assetID uuid.UUID) (*domain.Asset, error) {
	if orgID == uuid.Nil {
		return nil, apperrors.Forbidden("Profile is not attached to an organization")
	}
	var a domain.Asset
	err := scoped(db, orgID).Where("assets.id = ?", assetID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Asset not found")
	}
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return &a, nil
}

// UpdateAsset applies the non-nil fields with the same rules as CreateAsset.
func (s *Service) UpdateAsset(ctx context.Context, orgID, assetID uuid.UUID, in UpdateInput) (*domain.Asset, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	a, err := Find(s.DB.WithContext(ctx), orgID, assetID)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if in.Name != nil {
		v := validation.CleanText(*in.Name)
		if v == "" {
			return nil, apperrors.Validation("name is required")
		}
		changes["name"] = v
	}
	if in.Address != nil {
		v := validation.CleanText(*in.Address)
		if v == "" {
			return nil, apperrors.Validation("address is required")
		}
		changes["address"] = v
	}
	if in.AssetType != nil {
		if err := checkType(*in.AssetType); err != nil {
			return nil, err
		}
		changes["asset_type"] = *in.AssetType
	}
	if in.TotalArea != nil {
		if *in.TotalArea <= 0 {
			return nil, apperrors.Validation("total_area must be greater than 0")
		}
		changes["total_area"] = *in.TotalArea
	}
	if in.YearBuilt != nil {
		if err := checkYear(in.YearBuilt); err != nil {
			return nil, err
		}
		changes["year_built"] = *in.YearBuilt
	}
	if in.EnergyRating != nil {
		changes["energy_rating"] = validation.CleanOptional(in.EnergyRating)
	}
	if len(changes) == 0 {
		return a, nil
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.TotalArea != nil {
			var largest float64
			if err := tx.Model(&domain.AssetTenant{}).
				Where("asset_id = ? AND status IN ?", a.ID,
					[]string{domain.TenantStatusActive, domain.TenantStatusInvited}).
				Select("COALESCE(MAX(area_occupied), 0)").
				Scan(&largest).Error; err != nil {
				return err
			}
			if *in.TotalArea < largest {
				return apperrors.Validation("total_area must not be below an assigned tenant's area_occupied").
					WithMeta("total_area", fmt.Sprintf("must be at least %g", largest))
			}
		}
		return tx.Model(a).Updates(changes).Error
	})
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return Find(s.DB.WithContext(ctx), orgID, assetID)
}
