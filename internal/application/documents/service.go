package documents

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"greenledger-backend/internal/application/assets"
	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/infrastructure/storage"
	"greenledger-backend/internal/observability"
	"greenledger-backend/internal/pkg/apperrors"
	"greenledger-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	DefaultMaxBytes     = 10 << 20
	DefaultSignedURLTTL = time.Hour
)

// allowedTypes maps accepted MIME types to the stored file extension.
var allowedTypes = map[string]string{
	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "docx",
	"image/jpeg": "jpg",
	"image/png":  "png",
}

// Types whose leading bytes are checked against the declared MIME type.
var sniffed = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// Service stores document bytes in the object store and their metadata in the database.
type Service struct {
	DB           *gorm.DB
	Store        storage.ObjectStore
	Metrics      *observability.Metrics
	MaxBytes     int64
	SignedURLTTL time.Duration
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) maxBytes() int64 {
	if s.MaxBytes > 0 {
		return s.MaxBytes
	}
	return DefaultMaxBytes
}

// UploadInput is one file for one asset.
type UploadInput struct {
	AssetID      uuid.UUID
	DocumentType string
	Filename     string
	ContentType  string
	Body         []byte
}

func (s *Service) validate(in *UploadInput) error {
	if !domain.IsValidDocumentType(in.DocumentType) {
		return apperrors.Validation("document_type is invalid").WithMeta("document_type", domain.DocumentTypes)
	}
	in.ContentType = strings.ToLower(strings.TrimSpace(strings.SplitN(in.ContentType, ";", 2)[0]))
	if _, ok := allowedTypes[in.ContentType]; !ok {
		return apperrors.Validation("File type is not allowed").WithMeta("file", "allowed types: pdf, doc, docx, jpeg, png")
	}
	if len(in.Body) == 0 {
		return apperrors.Validation("File is empty").WithMeta("file", "file is required")
	}
	if int64(len(in.Body)) > s.maxBytes() {
		return apperrors.Validation("File is too large").WithMeta("file", fmt.Sprintf("must be at most %d bytes", s.maxBytes()))
	}
	if sniffed[in.ContentType] {
		detected := http.DetectContentType(in.Body)
		if !strings.HasPrefix(detected, in.ContentType) {
			return apperrors.Validation("File content does not match its type").WithMeta("file", detected)
		}
	}
	in.Filename = validation.SanitizeFilename(in.Filename)
	return nil
}

// UploadDocument writes the object first and then the two metadata rows in one
// transaction. A failed object write leaves no rows; a failed metadata write removes
// the object again.
func (s *Service) UploadDocument(ctx context.Context, caller *domain.Principal, in UploadInput) (*domain.AssetDocument, error) {
	if err := s.validate(&in); err != nil {
		s.Metrics.DocumentUpload("rejected")
		return nil, err
	}
	if _, err := assets.FindFor(s.DB.WithContext(ctx), caller, in.AssetID); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s/%d.%s", in.AssetID, s.now().UnixMilli(), allowedTypes[in.ContentType])
	err := s.Store.Put(ctx, path, in.ContentType, in.Body)
	s.Metrics.ThirdParty("storage", err)
	if err != nil {
		s.Metrics.DocumentUpload("storage_error")
		return nil, apperrors.Storage(err, "Failed to store document")
	}

	doc := &domain.Document{
		UserID:      caller.ProfileID,
		Filename:    in.Filename,
		FileType:    in.ContentType,
		FileSize:    int64(len(in.Body)),
		StoragePath: path,
	}
	link := &domain.AssetDocument{
		AssetID:      in.AssetID,
		DocumentType: in.DocumentType,
		UploadDate:   s.now(),
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		link.DocumentID = doc.ID
		return tx.Create(link).Error
	})
	if err != nil {
		s.Metrics.DocumentUpload("persistence_error")
		s.removeObject(ctx, path)
		return nil, apperrors.Persistence(err)
	}

	s.Metrics.DocumentUpload("ok")
	link.Document = doc
	log.Info().
		Str("asset_id", in.AssetID.String()).
		Str("document_id", doc.ID.String()).
		Int64("size", doc.FileSize).
		Msg("Document uploaded")
	return link, nil
}

func (s *Service) removeObject(ctx context.Context, path string) {
	// The request may already be cancelled; the cleanup must still run.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	err := s.Store.Delete(ctx, path)
	s.Metrics.ThirdParty("storage", err)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to remove orphaned document object")
	}
}

// ListDocuments returns the asset's documents, newest upload first.
func (s *Service) ListDocuments(ctx context.Context, caller *domain.Principal, assetID uuid.UUID) ([]domain.AssetDocument, error) {
	if _, err := assets.FindFor(s.DB.WithContext(ctx), caller, assetID); err != nil {
		return nil, err
	}
	list := []domain.AssetDocument{}
	if err := s.DB.WithContext(ctx).
		Preload("Document").
		Where("asset_id = ?", assetID).
		Order("upload_date DESC").
		Find(&list).Error; err != nil {
		return nil, apperrors.Persistence(err)
	}
	return list, nil
}

// SignedURL is a time-limited download link.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentURL signs a download URL for a document attached to an asset the caller can see.
func (s *Service) DocumentURL(ctx context.Context, caller *domain.Principal, documentID uuid.UUID) (*SignedURL, error) {
	var doc domain.Document
	err := assets.Occupied(s.DB.WithContext(ctx), caller).
		Joins("JOIN asset_documents ON asset_documents.document_id = documents.id").
		Joins("JOIN assets ON assets.id = asset_documents.asset_id").
		Joins("JOIN portfolios ON portfolios.id = assets.portfolio_id").
		Where("documents.id = ? AND portfolios.organization_id = ?", documentID, caller.OrgID()).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Document not found")
	}
	if err != nil {
		return nil, apperrors.Persistence(err)
	}

	ttl := s.SignedURLTTL
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	u, err := s.Store.SignedURL(ctx, doc.StoragePath, ttl)
	s.Metrics.ThirdParty("storage", err)
	if err != nil {
		return nil, apperrors.Storage(err, "Failed to sign document URL")
	}
	return &SignedURL{URL: u, ExpiresAt: s.now().Add(ttl)}, nil
}
