// Package testhttp drives Fiber handlers in tests.
package testhttp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// Envelope is the standard response body.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Message    string                 `json:"message"`
		StatusCode int                    `json:"statusCode"`
		Details    map[string]interface{} `json:"details"`
	} `json:"error"`
}

// App returns a Fiber app whose requests run as p (no principal when p is nil).
func App(p *domain.Principal) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		if p != nil {
			middleware.SetPrincipal(c, p)
		}
		return c.Next()
	})
	return app
}

// JSON sends body (marshalled unless already []byte or nil) and decodes the envelope.
func JSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, Envelope) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		r = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode, Decode(t, resp.Body)
}

// Decode reads a response body as an Envelope.
func Decode(t *testing.T, r io.Reader) Envelope {
	t.Helper()
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	var env Envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return env
}

// Data unmarshals the envelope's data into v.
func Data(t *testing.T, env Envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v), string(env.Data))
}
