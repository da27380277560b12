package notifications

import (
	"context"
	"encoding/json"
	"errors"

	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification types.
const (
	TypePurchase = "purchase"
	TypePayment  = "payment"
	TypeUse      = "use"
)

// Service reads and acknowledges a profile's notifications.
type Service struct {
	DB *gorm.DB
}

// Create inserts a notification using db, usually the caller's transaction.
func Create(db *gorm.DB, userID uuid.UUID, title, message, typ string, meta map[string]interface{}) (*domain.Notification, error) {
	n := &domain.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    typ,
	}
	if len(meta) > 0 {
		raw, err := json.Marshal(meta)
		if err != nil {
			return nil, err
		}
		n.Metadata = datatypes.JSON(raw)
	}
	if err := db.Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

// List returns newest first. unreadOnly filters acknowledged rows out.
func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]domain.Notification, error) {
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	list := []domain.Notification{}
	if err := q.Order("created_at DESC").Limit(200).Find(&list).Error; err != nil {
		return nil, apperrors.Persistence(err)
	}
	return list, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) (*domain.Notification, error) {
	var n domain.Notification
	err := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Notification not found")
	}
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	if !n.Read {
		if err := s.DB.WithContext(ctx).Model(&n).Update("read", true).Error; err != nil {
			return nil, apperrors.Persistence(err)
		}
		n.Read = true
	}
	return &n, nil
}

// MarkAllRead returns how many notifications changed.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, apperrors.Persistence(res.Error)
	}
	return res.RowsAffected, nil
}
