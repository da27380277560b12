package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ProjectActive   = "active"
	ProjectInactive = "inactive"
)

// Project is a carbon-offset project credits are bought against. Prices are in INR.
type Project struct {
	ID                      uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name                    string          `gorm:"column:name;not null" json:"name"`
	Description             *string         `gorm:"column:description" json:"description"`
	Location                *string         `gorm:"column:location" json:"location"`
	ProjectType             string          `gorm:"column:project_type;not null" json:"project_type"`
	PricePerCredit          decimal.Decimal `gorm:"column:price_per_credit;type:numeric(18,2);not null" json:"price_per_credit"`
	AvailableCredits        int64           `gorm:"column:available_credits;not null;default:0" json:"available_credits"`
	TotalEmissionsReduction *float64        `gorm:"column:total_emissions_reduction" json:"total_emissions_reduction"`
	Status                  string          `gorm:"column:status;type:varchar(20);not null;default:'active'" json:"status"`
	ImageURL                *string         `gorm:"column:image_url" json:"image_url"`
	CreatedAt               time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt               time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
