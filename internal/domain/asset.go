package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AssetTypeOffice      = "office"
	AssetTypeRetail      = "retail"
	AssetTypeIndustrial  = "industrial"
	AssetTypeResidential = "residential"
	AssetTypeMixedUse    = "mixed_use"
	AssetTypeCommercial  = "commercial"
)

// AssetTypes is the closed set of asset_type values.
var AssetTypes = []string{
	AssetTypeOffice,
	AssetTypeRetail,
	AssetTypeIndustrial,
	AssetTypeResidential,
	AssetTypeMixedUse,
	AssetTypeCommercial,
}

type Asset struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PortfolioID  uuid.UUID  `gorm:"column:portfolio_id;type:uuid;not null;index" json:"portfolio_id"`
	Portfolio    *Portfolio `gorm:"foreignKey:PortfolioID;constraint:OnDelete:RESTRICT" json:"portfolio,omitempty"`
	Name         string     `gorm:"column:name;not null" json:"name"`
	AssetType    string     `gorm:"column:asset_type;type:varchar(20);not null" json:"asset_type"`
	Address      string     `gorm:"column:address;not null" json:"address"`
	TotalArea    float64    `gorm:"column:total_area;not null;check:chk_assets_total_area,total_area > 0" json:"total_area"`
	YearBuilt    *int       `gorm:"column:year_built" json:"year_built"`
	EnergyRating *string    `gorm:"column:energy_rating" json:"energy_rating"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Asset) TableName() string {
	return "assets"
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// IsValidAssetType reports whether t is one of AssetTypes.
func IsValidAssetType(t string) bool {
	for _, v := range AssetTypes {
		if v == t {
			return true
		}
	}
	return false
}
