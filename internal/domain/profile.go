package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the application view of an auth provider user. ID is the provider's user id.
type Profile struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email          string     `gorm:"column:email;not null;uniqueIndex" json:"email"`
	CompanyName    *string    `gorm:"column:company_name" json:"company_name"`
	Role           *string    `gorm:"column:role" json:"role"`
	OrganizationID *uuid.UUID `gorm:"column:organization_id;type:uuid;index" json:"organization_id"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// RoleName returns the role or "" when unset.
func (p *Profile) RoleName() string {
	if p == nil || p.Role == nil {
		return ""
	}
	return *p.Role
}
