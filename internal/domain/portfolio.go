package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultPortfolioName is created for every organization that has no portfolio yet.
const DefaultPortfolioName = "Default Portfolio"

type Portfolio struct {
	ID             uuid.UUID     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID     `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:RESTRICT" json:"-"`
	Name           string        `gorm:"column:name;not null" json:"name"`
	Description    *string       `gorm:"column:description" json:"description"`
	CreatedAt      time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}

func (p *Portfolio) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
