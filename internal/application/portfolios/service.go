package portfolios

import (
	"context"
	"errors"

	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/apperrors"
	"greenledger-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service lists and creates portfolios inside one organization.
type Service struct {
	DB *gorm.DB
}

// CreateInput is the body of POST /portfolios.
type CreateInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// ListPortfolios returns the organization's portfolios, oldest first.
func (s *Service) ListPortfolios(ctx context.Context, orgID uuid.UUID) ([]domain.Portfolio, error) {
	if orgID == uuid.Nil {
		return nil, apperrors.Forbidden("Profile is not attached to an organization")
	}
	portfolios := []domain.Portfolio{}
	if err := s.DB.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&portfolios).Error; err != nil {
		return nil, apperrors.Persistence(err)
	}
	return portfolios, nil
}

// CreatePortfolio inserts a portfolio owned by orgID.
func (s *Service) CreatePortfolio(ctx context.Context, orgID uuid.UUID, in CreateInput) (*domain.Portfolio, error) {
	if orgID == uuid.Nil {
		return nil, apperrors.Forbidden("Profile is not attached to an organization")
	}
	in.Name = validation.CleanText(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	p := &domain.Portfolio{
		OrganizationID: orgID,
		Name:           in.Name,
		Description:    validation.CleanOptional(in.Description),
	}
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, apperrors.Persistence(err)
	}
	return p, nil
}

// GetPortfolio returns NotFound for portfolios of other organizations.
func (s *Service) GetPortfolio(ctx context.Context, orgID, portfolioID uuid.UUID) (*domain.Portfolio, error) {
	var p domain.Portfolio
	err := s.DB.WithContext(ctx).
		Where("id = ? AND organization_id = ?", portfolioID, orgID).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Portfolio not found")
	}
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return &p, nil
}

// EnsureDefault returns the organization's oldest portfolio, creating the default one
// when it has none. tx is usually a transaction.
func EnsureDefault(tx *gorm.DB, orgID uuid.UUID, description string) (*domain.Portfolio, error) {
	var p domain.Portfolio
	err := tx.Where("organization_id = ?", orgID).Order("created_at ASC").First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	p = domain.Portfolio{OrganizationID: orgID, Name: domain.DefaultPortfolioName}
	if description != "" {
		p.Description = &description
	}
	if err := tx.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
