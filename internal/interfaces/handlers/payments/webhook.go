package payments

import (
	"context"
	"errors"

	creditsvc "greenledger-backend/internal/application/credits"
	"greenledger-backend/internal/infrastructure/payments"
	"greenledger-backend/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Settler applies a verified payment event to the ledger.
type Settler interface {
	Settle(ctx context.Context, ev *payments.IntentEvent) (*creditsvc.SettleResult, error)
}

type WebhookHandler struct {
	Ledger        Settler
	WebhookSecret string
}

// HandleWebhook POST /api/v1/stripe/webhook. Raw body, signature verification, then
// settlement. Domain failures still return 200 so Stripe does not retry them; bad
// signatures get 400 and database failures 500 so the event is redelivered.
func (wh *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	raw := c.BodyRaw()
	sig := c.Get("Stripe-Signature")

	if len(raw) == 0 {
		log.Warn().Msg("Stripe webhook received empty body")
		return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: empty body")
	}

	ev, ok, err := payments.ParseEvent(raw, sig, wh.WebhookSecret)
	if err != nil {
		log.Warn().Err(err).Bool("has_sig", sig != "").Bool("has_secret", wh.WebhookSecret != "").Msg("Stripe webhook rejected")
		if errors.Is(err, payments.ErrMissingSecret) {
			return c.Status(fiber.StatusServiceUnavailable).SendString("Webhook Error: not configured")
		}
		return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: " + err.Error())
	}
	if !ok {
		return c.Status(fiber.StatusOK).SendString("ok")
	}

	res, err := wh.Ledger.Settle(c.UserContext(), ev)
	if err != nil {
		log.Error().Err(err).Str("event_id", ev.EventID).Str("payment_intent_id", ev.IntentID).Msg("Stripe settlement failed")
		if apperrors.IsCode(err, apperrors.CodePersistence) {
			return c.Status(fiber.StatusInternalServerError).SendString("Webhook Error: retry later")
		}
		return c.Status(fiber.StatusOK).SendString("ok")
	}
	if res != nil {
		log.Info().Str("event_id", ev.EventID).Str("credit_id", res.Credit.ID.String()).Bool("changed", res.Changed).Msg("Stripe event processed")
	}
	return c.Status(fiber.StatusOK).SendString("ok")
}
