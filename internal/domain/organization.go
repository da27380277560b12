package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization is the tenant boundary. Domain is the lower-cased email domain used to
// attach new profiles during onboarding; BootstrapKey holds the profile id whose first
// sign-in created the organization.
type Organization struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name               string    `gorm:"column:name;not null" json:"name"`
	RegistrationNumber *string   `gorm:"column:registration_number" json:"registration_number"`
	Address            *string   `gorm:"column:address" json:"address"`
	Domain             *string   `gorm:"column:domain;uniqueIndex" json:"domain"`
	BootstrapKey       *string   `gorm:"column:bootstrap_key;uniqueIndex" json:"-"`
	CreatedAt          time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}

// BeforeCreate ensures id is set for DBs without default uuid.
func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
