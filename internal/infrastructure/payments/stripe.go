package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// ErrNotConfigured is returned when no Stripe secret key is set.
var ErrNotConfigured = errors.New("payments: stripe not configured")

// Intent is the part of a PaymentIntent the client needs to confirm payment.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// IntentCreator abstracts PaymentIntent creation for testability.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency, idempotencyKey string, metadata map[string]string) (*Intent, error)
}

// StripeCreator creates PaymentIntents with the Stripe SDK.
type StripeCreator struct {
	api *client.API
}

// NewStripeCreator returns a creator bound to secretKey. backends may be nil.
func NewStripeCreator(secretKey string, backends *stripe.Backends) *StripeCreator {
	if secretKey == "" {
		return &StripeCreator{}
	}
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeCreator{api: api}
}

func (s *StripeCreator) CreateIntent(ctx context.Context, amountMinor int64, currency, idempotencyKey string, metadata map[string]string) (*Intent, error) {
	if s == nil || s.api == nil {
		return nil, ErrNotConfigured
	}
	if amountMinor <= 0 {
		return nil, fmt.Errorf("payments: amount must be positive, got %d", amountMinor)
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// ToMinorUnits converts a major-unit amount (e.g. rupees) into the smallest
// currency unit Stripe charges in.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
