package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TenantStatusInvited = "invited"
	TenantStatusActive  = "active"
	TenantStatusRevoked = "revoked"
)

// AssetTenant links an asset to the profile occupying part of it. TenantID stays nil
// while the occupant has not yet claimed the invitation sent to TenantEmail.
type AssetTenant struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AssetID        uuid.UUID  `gorm:"column:asset_id;type:uuid;not null;index" json:"asset_id"`
	Asset          *Asset     `gorm:"foreignKey:AssetID;constraint:OnDelete:RESTRICT" json:"-"`
	TenantID       *uuid.UUID `gorm:"column:tenant_id;type:uuid;index" json:"tenant_id"`
	Tenant         *Profile   `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	TenantEmail    string     `gorm:"column:tenant_email;not null" json:"tenant_email"`
	InvitationID   *uuid.UUID `gorm:"column:invitation_id;type:uuid" json:"invitation_id"`
	FloorNumber    *int       `gorm:"column:floor_number" json:"floor_number"`
	AreaOccupied   float64    `gorm:"column:area_occupied;not null;check:chk_asset_tenants_area,area_occupied > 0" json:"area_occupied"`
	LeaseStartDate time.Time  `gorm:"column:lease_start_date;not null" json:"lease_start_date"`
	LeaseEndDate   *time.Time `gorm:"column:lease_end_date" json:"lease_end_date"`
	Status         string     `gorm:"column:status;type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (AssetTenant) TableName() string {
	return "asset_tenants"
}

func (t *AssetTenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
