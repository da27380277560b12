package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment records the settlement of one Stripe PaymentIntent against a credit purchase.
type Payment struct {
	ID                    uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	StripePaymentIntentID string         `gorm:"column:stripe_payment_intent_id;uniqueIndex;not null" json:"stripe_payment_intent_id"`
	StripeEventID         string         `gorm:"column:stripe_event_id;uniqueIndex;not null" json:"stripe_event_id"`
	CreditID              uuid.UUID      `gorm:"column:credit_id;type:uuid;not null;index" json:"credit_id"`
	AmountReceived        int64          `gorm:"column:amount_received;not null" json:"amount_received"`
	Currency              string         `gorm:"column:currency;not null" json:"currency"`
	Status                string         `gorm:"column:status;not null" json:"status"`
	RawEvent              datatypes.JSON `gorm:"column:raw_event;type:jsonb" json:"raw_event"`
	CreatedAt             time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
