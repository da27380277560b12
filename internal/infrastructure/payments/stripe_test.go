package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func testBackends(url string) *stripe.Backends {
	b := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:           stripe.String(url),
		LeveledLogger: &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return &stripe.Backends{API: b, Connect: b, Uploads: b}
}

func TestStripeCreator_CreateIntent(t *testing.T) {
	var gotForm map[string]string
	var gotIdem string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		gotIdem = r.Header.Get("Idempotency-Key")
		_ = r.ParseForm()
		gotForm = map[string]string{
			"amount":              r.PostForm.Get("amount"),
			"currency":            r.PostForm.Get("currency"),
			"metadata[credit_id]": r.PostForm.Get("metadata[credit_id]"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","client_secret":"pi_123_secret_abc","amount":100000,"currency":"inr","status":"requires_payment_method"}`))
	}))
	defer srv.Close()

	c := NewStripeCreator("sk_test_123", testBackends(srv.URL))
	intent, err := c.CreateIntent(context.Background(), 100000, "inr", "credit-1", map[string]string{"credit_id": "credit-1"})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, "100000", gotForm["amount"])
	assert.Equal(t, "inr", gotForm["currency"])
	assert.Equal(t, "credit-1", gotForm["metadata[credit_id]"])
	assert.Equal(t, "credit-1", gotIdem)
}

func TestStripeCreator_NotConfigured(t *testing.T) {
	c := NewStripeCreator("", nil)
	_, err := c.CreateIntent(context.Background(), 100, "inr", "", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStripeCreator_RejectsNonPositiveAmount(t *testing.T) {
	c := NewStripeCreator("sk_test_123", testBackends("http://127.0.0.1:1"))
	_, err := c.CreateIntent(context.Background(), 0, "inr", "", nil)
	assert.Error(t, err)
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(100000), ToMinorUnits(decimal.NewFromInt(1000)))
	assert.Equal(t, int64(1251), ToMinorUnits(decimal.RequireFromString("12.505")))
	assert.Equal(t, int64(1999), ToMinorUnits(decimal.RequireFromString("19.99")))
}
