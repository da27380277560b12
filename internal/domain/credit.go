package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CreditPurchase = "purchase"
	CreditUse      = "use"

	CreditPending   = "pending"
	CreditCompleted = "completed"
	CreditFailed    = "failed"
	CreditCancelled = "cancelled"
)

// Credit is one ledger entry. TotalAmount is fixed at creation to Quantity * PricePerCredit.
type Credit struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	ProjectID       uuid.UUID       `gorm:"column:project_id;type:uuid;not null;index" json:"project_id"`
	Project         *Project        `gorm:"foreignKey:ProjectID;constraint:OnDelete:RESTRICT" json:"project,omitempty"`
	Quantity        int64           `gorm:"column:quantity;not null;check:chk_credits_quantity,quantity > 0" json:"quantity"`
	TransactionType string          `gorm:"column:transaction_type;type:varchar(20);not null" json:"transaction_type"`
	PricePerCredit  decimal.Decimal `gorm:"column:price_per_credit;type:numeric(18,2);not null" json:"price_per_credit"`
	TotalAmount     decimal.Decimal `gorm:"column:total_amount;type:numeric(18,2);not null" json:"total_amount"`
	Status          string          `gorm:"column:status;type:varchar(20);not null" json:"status"`
	PaymentIntentID *string         `gorm:"column:payment_intent_id;uniqueIndex" json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time       `gorm:"column:created_at" json:"created_at"`
}

func (Credit) TableName() string {
	return "credits"
}

func (c *Credit) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// NewCredit builds a ledger entry with its total derived from quantity and price.
func NewCredit(userID, projectID uuid.UUID, quantity int64, price decimal.Decimal, txType, status string) *Credit {
	return &Credit{
		UserID:          userID,
		ProjectID:       projectID,
		Quantity:        quantity,
		TransactionType: txType,
		PricePerCredit:  price,
		TotalAmount:     price.Mul(decimal.NewFromInt(quantity)),
		Status:          status,
	}
}
