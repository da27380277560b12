package payments

import (
	"encoding/json"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ErrMissingSecret is returned when the webhook signing secret is unset.
var ErrMissingSecret = errors.New("payments: webhook secret not configured")

// IntentEvent is a verified payment_intent.* event reduced to what settlement needs.
type IntentEvent struct {
	EventID        string
	Type           string
	IntentID       string
	Status         string
	AmountReceived int64
	Currency       string
	Metadata       map[string]string
	Raw            []byte
}

// Event types that settle a pending credit purchase.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventIntentCanceled  = "payment_intent.canceled"
)

// IsSettlementEvent reports whether t finalises a PaymentIntent.
func IsSettlementEvent(t string) bool {
	switch t {
	case EventIntentSucceeded, EventIntentFailed, EventIntentCanceled:
		return true
	}
	return false
}

// ParseEvent verifies the Stripe-Signature header and decodes the event.
// ok is false for event types that do not carry a PaymentIntent.
func ParseEvent(payload []byte, sigHeader, secret string) (ev *IntentEvent, ok bool, err error) {
	if secret == "" {
		return nil, false, ErrMissingSecret
	}
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, false, err
	}
	if !IsSettlementEvent(string(event.Type)) {
		return &IntentEvent{EventID: event.ID, Type: string(event.Type)}, false, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, false, err
	}
	return &IntentEvent{
		EventID:        event.ID,
		Type:           string(event.Type),
		IntentID:       pi.ID,
		Status:         string(pi.Status),
		AmountReceived: pi.AmountReceived,
		Currency:       string(pi.Currency),
		Metadata:       pi.Metadata,
		Raw:            payload,
	}, true, nil
}
