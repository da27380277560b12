package router

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"greenledger-backend/internal/config"
	"greenledger-backend/internal/observability"
	"greenledger-backend/internal/pkg/testdb"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const jwtSecret = "router-test-secret"

func testConfig() *config.Config {
	return &config.Config{
		Env:               "test",
		AppBaseURL:        "https://app.greenledger.test",
		MaxUploadBytes:    1 << 20,
		RateLimitRPS:      1000,
		RateLimitBurst:    1000,
		PaymentCurrency:   "inr",
		SupabaseJWTSecret: jwtSecret,
		HealthAdminKey:    "ops-key",
	}
}

func setupApp(t *testing.T) (*fiber.App, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()
	db := testdb.Open(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	app, err := New(Deps{Config: testConfig(), DB: db, Rdb: rdb, Metrics: observability.New(nil)})
	require.NoError(t, err)
	return app, db, mr
}

func bearer(t *testing.T, id uuid.UUID, email string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   id.String(),
		"email": email,
		"aud":   "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func do(t *testing.T, app *fiber.App, method, path, auth, body string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(raw)
}

func TestRoutes_Authentication(t *testing.T) {
	app, _, _ := setupApp(t)

	status, _ := do(t, app, "GET", "/api/v1/profile", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = do(t, app, "GET", "/api/v1/profile", "Bearer not-a-jwt", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	// The invitation check is public.
	status, _ = do(t, app, "POST", "/api/v1/invitations/public/check-token", "", `{"token":""}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	id := uuid.New()
	status, body := do(t, app, "GET", "/api/v1/profile", bearer(t, id, "solo@gmail.com"), "")
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Contains(t, body, "solo@gmail.com")

	// Profiles without an organization stop at org-scoped routes.
	status, body = do(t, app, "GET", "/api/v1/portfolios", bearer(t, id, "solo@gmail.com"), "")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Contains(t, body, "Complete onboarding")
}

func TestRoutes_BootstrapThenOrgScope(t *testing.T) {
	app, db, mr := setupApp(t)
	id := uuid.New()
	auth := bearer(t, id, "founder@acme.com")

	status, body := do(t, app, "GET", "/api/v1/profile", auth, "")
	require.Equal(t, fiber.StatusOK, status, body)
	assert.True(t, mr.Exists("principal:"+id.String()))

	status, body = do(t, app, "POST", "/api/v1/onboarding/bootstrap", auth, "")
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.False(t, mr.Exists("principal:"+id.String()))

	status, body = do(t, app, "GET", "/api/v1/portfolios", auth, "")
	require.Equal(t, fiber.StatusOK, status, body)

	status, body = do(t, app, "POST", "/api/v1/portfolios", auth, `{"name":"HQ Buildings"}`)
	require.Equal(t, fiber.StatusCreated, status, body)

	status, body = do(t, app, "GET", "/api/v1/orgs/me", auth, "")
	require.Equal(t, fiber.StatusOK, status, body)
	var env struct {
		Data struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &env))

	f := &testdb.Fixture{}
	require.NoError(t, db.First(&f.Org, "id = ?", env.Data.ID).Error)
	tenant := testdb.AddMember(t, db, f, "alice@shop.com", "tenant")
	tenantAuth := bearer(t, tenant.ID, tenant.Email)

	status, _ = do(t, app, "GET", "/api/v1/portfolios", tenantAuth, "")
	assert.Equal(t, fiber.StatusOK, status)
	status, body = do(t, app, "POST", "/api/v1/portfolios", tenantAuth, `{"name":"Nope"}`)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Contains(t, body, "Forbidden")
	status, _ = do(t, app, "PATCH", "/api/v1/orgs/me", tenantAuth, `{"name":"Hijack"}`)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = do(t, app, "POST", "/api/v1/credits/purchase", tenantAuth, `{}`)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = do(t, app, "GET", "/api/v1/notifications", tenantAuth, "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestRoutes_Ops(t *testing.T) {
	app, _, _ := setupApp(t)

	status, body := do(t, app, "GET", "/health/json", "", "")
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Contains(t, body, `"database"`)

	status, _ = do(t, app, "GET", "/health/reset", "", "")
	assert.Equal(t, fiber.StatusForbidden, status)

	req := httptest.NewRequest("GET", "/health/reset", nil)
	req.Header.Set("X-Admin-Key", "ops-key")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	status, body = do(t, app, "GET", "/metrics", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, "greenledger_")

	status, _ = do(t, app, "GET", "/", "", "")
	assert.Equal(t, fiber.StatusOK, status)

	// No signing secret configured.
	status, _ = do(t, app, "POST", "/api/v1/stripe/webhook", "", `{"id":"evt_1"}`)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}
