package profiles

import (
	"context"
	"errors"

	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/apperrors"
	"greenledger-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service reads and updates profiles.
type Service struct {
	DB *gorm.DB
}

// Resolve returns the profile for an authenticated user, creating it on first sight.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID, email string) (*domain.Profile, error) {
	if id == uuid.Nil {
		return nil, apperrors.Auth("Invalid token subject")
	}
	return FindOrCreate(s.DB.WithContext(ctx), id, email)
}

// FindOrCreate loads profile id inside db (which may be a transaction) or inserts it.
func FindOrCreate(db *gorm.DB, id uuid.UUID, email string) (*domain.Profile, error) {
	var p domain.Profile
	err := db.Where("id = ?", id).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Persistence(err)
	}

	email = validation.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.Auth("Token has no email claim")
	}
	p = domain.Profile{ID: id, Email: email}
	// A concurrent first request may insert the same row.
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
		return nil, apperrors.Persistence(err)
	}
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Conflict("Email already registered to another account")
		}
		return nil, apperrors.Persistence(err)
	}
	return &p, nil
}

func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	var p domain.Profile
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Profile not found")
		}
		return nil, apperrors.Persistence(err)
	}
	return &p, nil
}

// UpdateProfileInput holds the user-editable fields.
type UpdateProfileInput struct {
	CompanyName *string `json:"company_name" validate:"omitempty,max=200"`
}

// UpdateProfile changes company_name. Role and organization are managed elsewhere.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (*domain.Profile, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.CompanyName == nil {
		return p, nil
	}
	if err := s.DB.WithContext(ctx).Model(p).Update("company_name", validation.CleanOptional(in.CompanyName)).Error; err != nil {
		return nil, apperrors.Persistence(err)
	}
	return s.GetProfile(ctx, id)
}
