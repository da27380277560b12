package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRevoked  = "revoked"
	InvitationExpired  = "expired"
)

// Invitation lets a prospective tenant claim an asset assignment after signing up with
// the auth provider. The token handed out is "<selector>.<verifier>"; only the bcrypt
// hash of the verifier is stored.
type Invitation struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"column:organization_id;type:uuid;not null;index" json:"organization_id"`
	AssetID        uuid.UUID `gorm:"column:asset_id;type:uuid;not null;index" json:"asset_id"`
	Email          string    `gorm:"column:email;not null;index" json:"email"`
	Selector       string    `gorm:"column:selector;not null;uniqueIndex" json:"-"`
	VerifierHash   string    `gorm:"column:verifier_hash;not null" json:"-"`
	Status         string    `gorm:"column:status;type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedBy      uuid.UUID `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	ExpiresAt      time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Invitation) TableName() string {
	return "invitations"
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
