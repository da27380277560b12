package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentTypes is the closed set of asset_documents.document_type tags.
var DocumentTypes = []string{
	"energy_bill",
	"water_bill",
	"waste_bill",
	"certification",
	"audit_report",
	"lease",
	"energy",
	"floor_plan",
	"photo",
	"general",
}

// Document is the metadata of an object held in external storage.
type Document struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Filename    string    `gorm:"column:filename;not null" json:"filename"`
	FileType    string    `gorm:"column:file_type;not null" json:"file_type"`
	FileSize    int64     `gorm:"column:file_size;not null" json:"file_size"`
	StoragePath string    `gorm:"column:storage_path;not null;uniqueIndex" json:"storage_path"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Document) TableName() string {
	return "documents"
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

type AssetDocument struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AssetID      uuid.UUID `gorm:"column:asset_id;type:uuid;not null;index" json:"asset_id"`
	Asset        *Asset    `gorm:"foreignKey:AssetID;constraint:OnDelete:RESTRICT" json:"-"`
	DocumentID   uuid.UUID `gorm:"column:document_id;type:uuid;not null" json:"document_id"`
	Document     *Document `gorm:"foreignKey:DocumentID;constraint:OnDelete:RESTRICT" json:"document,omitempty"`
	DocumentType string    `gorm:"column:document_type;type:varchar(32);not null" json:"document_type"`
	UploadDate   time.Time `gorm:"column:upload_date;not null" json:"upload_date"`
}

func (AssetDocument) TableName() string {
	return "asset_documents"
}

func (a *AssetDocument) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.UploadDate.IsZero() {
		a.UploadDate = time.Now().UTC()
	}
	return nil
}

// IsValidDocumentType reports whether t is one of DocumentTypes.
func IsValidDocumentType(t string) bool {
	for _, v := range DocumentTypes {
		if v == t {
			return true
		}
	}
	return false
}
