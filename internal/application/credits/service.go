package credits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"greenledger-backend/internal/application/emails"
	"greenledger-backend/internal/application/notifications"
	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/infrastructure/payments"
	"greenledger-backend/internal/observability"
	"greenledger-backend/internal/pkg/apperrors"
	"greenledger-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service is the carbon credit ledger.
type Service struct {
	DB       *gorm.DB
	Payments payments.IntentCreator
	Mailer   emails.Sender
	Metrics  *observability.Metrics
	Currency string
}

func (s *Service) currency() string {
	if s.Currency != "" {
		return s.Currency
	}
	return "inr"
}

// ListProjects returns active projects by name.
func (s *Service) ListProjects(ctx context.Context) ([]domain.Project, error) {
	list := []domain.Project{}
	if err := s.DB.WithContext(ctx).
		Where("status = ?", domain.ProjectActive).
		Order("name ASC").
		Find(&list).Error; err != nil {
		return nil, apperrors.Persistence(err)
	}
	return list, nil
}

func (s *Service) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var p domain.Project
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Project not found")
	}
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return &p, nil
}

// PurchaseInput is the body of POST /credits/purchase.
type PurchaseInput struct {
	ProjectID      uuid.UUID       `json:"project_id" validate:"required"`
	Quantity       int64           `json:"quantity" validate:"gt=0"`
	PricePerCredit decimal.Decimal `json:"price_per_credit"`
}

// PurchaseResult carries the pending credit and, with payments enabled, the secret
// the client confirms the PaymentIntent with.
type PurchaseResult struct {
	Credit       *domain.Credit `json:"credit"`
	ClientSecret string         `json:"client_secret,omitempty"`
}

func loadProject(tx *gorm.DB, id uuid.UUID) (*domain.Project, error) {
	var p domain.Project
	err := tx.Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Validation("project does not exist").WithMeta("project_id", "project does not exist")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// reserve takes n credits out of the project's stock. It reports false when the
// stock cannot cover n.
func reserve(tx *gorm.DB, projectID uuid.UUID, n int64) (bool, error) {
	res := tx.Model(&domain.Project{}).
		Where("id = ? AND available_credits >= ?", projectID, n).
		UpdateColumn("available_credits", gorm.Expr("available_credits - ?", n))
	return res.RowsAffected > 0, res.Error
}

func release(tx *gorm.DB, projectID uuid.UUID, n int64) error {
	return tx.Model(&domain.Project{}).
		Where("id = ?", projectID).
		UpdateColumn("available_credits", gorm.Expr("available_credits + ?", n)).Error
}

// PurchaseCredits records a pending purchase and its notification and reserves the
// stock in one transaction, then opens a PaymentIntent for the total. Stock stays
// reserved until the payment fails or is cancelled.
func (s *Service) PurchaseCredits(ctx context.Context, caller *domain.Principal, in PurchaseInput) (*PurchaseResult, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if !in.PricePerCredit.IsPositive() {
		return nil, apperrors.Validation("price_per_credit must be greater than 0").
			WithMeta("price_per_credit", "must be greater than 0")
	}

	res := &PurchaseResult{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := loadProject(tx, in.ProjectID)
		if err != nil {
			return err
		}
		if project.Status != domain.ProjectActive {
			return apperrors.Validation("project is not active").WithMeta("project_id", "project is not active")
		}
		if !in.PricePerCredit.Equal(project.PricePerCredit) {
			return apperrors.Validation("price_per_credit does not match the project price").
				WithMeta("price_per_credit", project.PricePerCredit.StringFixed(2))
		}
		ok, err := reserve(tx, project.ID, in.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.Validation("quantity exceeds available credits").
				WithMeta("quantity", fmt.Sprintf("must be at most %d", project.AvailableCredits))
		}

		credit := domain.NewCredit(caller.ProfileID, project.ID, in.Quantity, project.PricePerCredit, domain.CreditPurchase, domain.CreditPending)
		if err := tx.Create(credit).Error; err != nil {
			return err
		}
		if _, err := notifications.Create(tx, caller.ProfileID,
			"Credit Purchase Initiated",
			fmt.Sprintf("Purchase of %d credits is being processed", in.Quantity),
			notifications.TypePurchase,
			map[string]interface{}{"credit_id": credit.ID, "project_id": project.ID},
		); err != nil {
			return err
		}
		res.Credit = credit
		return nil
	})
	if err != nil {
		return nil, apperrors.Persistence(err)
	}

	if s.Payments != nil {
		if err := s.openIntent(ctx, caller, res); err != nil {
			return nil, err
		}
	}

	s.Metrics.CreditTransaction(domain.CreditPurchase)
	log.Info().
		Str("credit_id", res.Credit.ID.String()).
		Int64("quantity", res.Credit.Quantity).
		Str("total", res.Credit.TotalAmount.StringFixed(2)).
		Msg("Credit purchase initiated")
	return res, nil
}

// openIntent asks the payment provider for an intent keyed by the credit id and
// stores its id. A purchase whose intent cannot be opened or stored is abandoned.
func (s *Service) openIntent(ctx context.Context, caller *domain.Principal, res *PurchaseResult) error {
	credit := res.Credit
	intent, err := s.Payments.CreateIntent(ctx, payments.ToMinorUnits(credit.TotalAmount), s.currency(), credit.ID.String(),
		map[string]string{
			"credit_id":  credit.ID.String(),
			"user_id":    caller.ProfileID.String(),
			"project_id": credit.ProjectID.String(),
		})
	s.Metrics.ThirdParty("stripe", err)
	if err != nil {
		s.abandon(ctx, credit)
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "Payment provider unavailable")
	}
	if err := s.DB.WithContext(ctx).Model(credit).Update("payment_intent_id", intent.ID).Error; err != nil {
		s.abandon(ctx, credit)
		return apperrors.Persistence(err)
	}
	credit.PaymentIntentID = &intent.ID
	res.ClientSecret = intent.ClientSecret
	return nil
}

// abandon fails a pending purchase and returns its stock.
func (s *Service) abandon(ctx context.Context, credit *domain.Credit) {
	// The request may already be cancelled; the cleanup must still run.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upd := tx.Model(&domain.Credit{}).
			Where("id = ? AND status = ?", credit.ID, domain.CreditPending).
			Update("status", domain.CreditFailed)
		if upd.Error != nil || upd.RowsAffected == 0 {
			return upd.Error
		}
		if err := release(tx, credit.ProjectID, credit.Quantity); err != nil {
			return err
		}
		text := settlementText[domain.CreditFailed]
		_, err := notifications.Create(tx, credit.UserID, text[0], fmt.Sprintf(text[1], credit.Quantity),
			notifications.TypePurchase,
			map[string]interface{}{"credit_id": credit.ID, "project_id": credit.ProjectID},
		)
		return err
	})
	if err != nil {
		log.Error().Err(err).Str("credit_id", credit.ID.String()).Msg("Failed to abandon credit purchase")
		return
	}
	credit.Status = domain.CreditFailed
}

// GetCreditSummary totals the profile's ledger.
func (s *Service) GetCreditSummary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	var rows []domain.Credit
	if err := s.DB.WithContext(ctx).
		Select("transaction_type", "status", "quantity", "total_amount").
		Where("user_id = ?", userID).
		Find(&rows).Error; err != nil {
		return nil, apperrors.Persistence(err)
	}
	sum := Summarize(rows)
	return &sum, nil
}

// ListCredits returns the profile's ledger, newest first.
func (s *Service) ListCredits(ctx context.Context, userID uuid.UUID) ([]domain.Credit, error) {
	list := []domain.Credit{}
	if err := s.DB.WithContext(ctx).
		Preload("Project").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, apperrors.Persistence(err)
	}
	return list, nil
}

// UseInput is the body of POST /credits/use.
type UseInput struct {
	ProjectID uuid.UUID `json:"project_id" validate:"required"`
	Quantity  int64     `json:"quantity" validate:"gt=0"`
}

// UseCredits retires credits the profile owns for a project.
func (s *Service) UseCredits(ctx context.Context, caller *domain.Principal, in UseInput) (*domain.Credit, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var credit *domain.Credit
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialises concurrent uses by the same profile.
		var profile domain.Profile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", caller.ProfileID).First(&profile).Error; err != nil {
			return err
		}
		project, err := loadProject(tx, in.ProjectID)
		if err != nil {
			return err
		}
		var rows []domain.Credit
		if err := tx.Where("user_id = ? AND project_id = ?", caller.ProfileID, project.ID).Find(&rows).Error; err != nil {
			return err
		}
		if net := Summarize(rows).Net; in.Quantity > net {
			return apperrors.Validation("insufficient credits").WithMeta("quantity", fmt.Sprintf("must be at most %d", net))
		}

		credit = domain.NewCredit(caller.ProfileID, project.ID, in.Quantity, project.PricePerCredit, domain.CreditUse, domain.CreditCompleted)
		if err := tx.Create(credit).Error; err != nil {
			return err
		}
		_, err = notifications.Create(tx, caller.ProfileID,
			"Credits Used",
			fmt.Sprintf("%d credits from %s were retired", in.Quantity, project.Name),
			notifications.TypeUse,
			map[string]interface{}{"credit_id": credit.ID, "project_id": project.ID},
		)
		return err
	})
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	s.Metrics.CreditTransaction(domain.CreditUse)
	return credit, nil
}

// SettleResult reports the credit after a payment event and whether it changed.
type SettleResult struct {
	Credit  *domain.Credit
	Changed bool
}

var settlementStatus = map[string]string{
	payments.EventIntentSucceeded: domain.CreditCompleted,
	payments.EventIntentFailed:    domain.CreditFailed,
	payments.EventIntentCanceled:  domain.CreditCancelled,
}

// canTransition lists the moves a payment event may make. A failed intent can still
// succeed when the customer retries it.
func canTransition(from, to string) bool {
	switch from {
	case domain.CreditPending:
		return to == domain.CreditCompleted || to == domain.CreditFailed || to == domain.CreditCancelled
	case domain.CreditFailed:
		return to == domain.CreditCompleted || to == domain.CreditCancelled
	}
	return false
}

var settlementText = map[string][2]string{
	domain.CreditCompleted: {"Credit Purchase Completed", "Purchase of %d credits is complete"},
	domain.CreditFailed:    {"Credit Purchase Failed", "Payment for %d credits failed"},
	domain.CreditCancelled: {"Credit Purchase Cancelled", "Purchase of %d credits was cancelled"},
}

var unfulfilledText = [2]string{
	"Credit Purchase Not Fulfilled",
	"Payment for %d credits arrived after the project sold out and will be refunded",
}

// Settle applies a verified PaymentIntent event to its credit. Replayed or out of
// order events leave the ledger unchanged. Unknown intents return (nil, nil).
func (s *Service) Settle(ctx context.Context, ev *payments.IntentEvent) (*SettleResult, error) {
	target, ok := settlementStatus[ev.Type]
	if !ok {
		return nil, nil
	}

	var res *SettleResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var credit domain.Credit
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_intent_id = ?", ev.IntentID).First(&credit).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		res = &SettleResult{Credit: &credit}

		var seen int64
		if err := tx.Model(&domain.Payment{}).Where("stripe_event_id = ?", ev.EventID).Count(&seen).Error; err != nil {
			return err
		}
		if seen > 0 || !canTransition(credit.Status, target) {
			return nil
		}
		meta := map[string]interface{}{"credit_id": credit.ID, "payment_intent_id": ev.IntentID}

		// Pending purchases hold their stock; failed ones gave it back.
		switch {
		case credit.Status == domain.CreditFailed && target == domain.CreditCompleted:
			ok, err := reserve(tx, credit.ProjectID, credit.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				log.Error().
					Str("credit_id", credit.ID.String()).
					Str("payment_intent_id", ev.IntentID).
					Msg("Retried payment exceeds project stock; refund required")
				if _, err := notifications.Create(tx, credit.UserID, unfulfilledText[0],
					fmt.Sprintf(unfulfilledText[1], credit.Quantity), notifications.TypePayment, meta); err != nil {
					return err
				}
				return recordPayment(tx, &credit, ev)
			}
		case credit.Status == domain.CreditPending && target != domain.CreditCompleted:
			if err := release(tx, credit.ProjectID, credit.Quantity); err != nil {
				return err
			}
		}

		if err := tx.Model(&credit).Update("status", target).Error; err != nil {
			return err
		}
		credit.Status = target

		text := settlementText[target]
		if _, err := notifications.Create(tx, credit.UserID, text[0], fmt.Sprintf(text[1], credit.Quantity),
			notifications.TypePayment, meta); err != nil {
			return err
		}

		if err := recordPayment(tx, &credit, ev); err != nil {
			return err
		}
		res.Changed = true
		return nil
	})
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	if res == nil {
		log.Warn().Str("payment_intent_id", ev.IntentID).Str("event", ev.Type).Msg("Payment event for unknown intent")
		return nil, nil
	}
	if res.Changed {
		s.Metrics.PaymentSettled(res.Credit.Status)
		log.Info().
			Str("credit_id", res.Credit.ID.String()).
			Str("status", res.Credit.Status).
			Msg("Credit purchase settled")
		if res.Credit.Status == domain.CreditCompleted {
			s.sendReceipt(ctx, res.Credit)
		}
	}
	return res, nil
}

// recordPayment keeps one Payment row per intent holding its latest event.
func recordPayment(tx *gorm.DB, credit *domain.Credit, ev *payments.IntentEvent) error {
	fields := map[string]interface{}{
		"stripe_event_id": ev.EventID,
		"amount_received": ev.AmountReceived,
		"currency":        ev.Currency,
		"status":          ev.Status,
		"raw_event":       datatypes.JSON(ev.Raw),
	}
	res := tx.Model(&domain.Payment{}).Where("stripe_payment_intent_id = ?", ev.IntentID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return tx.Create(&domain.Payment{
		StripePaymentIntentID: ev.IntentID,
		StripeEventID:         ev.EventID,
		CreditID:              credit.ID,
		AmountReceived:        ev.AmountReceived,
		Currency:              ev.Currency,
		Status:                ev.Status,
		RawEvent:              datatypes.JSON(ev.Raw),
	}).Error
}

func (s *Service) sendReceipt(ctx context.Context, credit *domain.Credit) {
	if s.Mailer == nil {
		return
	}
	var profile domain.Profile
	if err := s.DB.WithContext(ctx).Select("email").Where("id = ?", credit.UserID).First(&profile).Error; err != nil {
		log.Warn().Err(err).Msg("Receipt skipped: profile lookup failed")
		return
	}
	var project domain.Project
	if err := s.DB.WithContext(ctx).Select("name").Where("id = ?", credit.ProjectID).First(&project).Error; err != nil {
		log.Warn().Err(err).Msg("Receipt skipped: project lookup failed")
		return
	}
	err := s.Mailer.SendPurchaseReceipt(ctx, emails.PurchaseReceipt{
		To:          profile.Email,
		ProjectName: project.Name,
		Quantity:    credit.Quantity,
		TotalAmount: credit.TotalAmount.StringFixed(2),
		Currency:    s.currency(),
	})
	if err != nil {
		log.Warn().Err(err).Str("credit_id", credit.ID.String()).Msg("Purchase receipt email failed")
	}
}
