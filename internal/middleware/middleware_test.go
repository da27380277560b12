package middleware

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"greenledger-backend/internal/constants"
	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/apperrors"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role != "" {
			SetPrincipal(c, &domain.Principal{ProfileID: uuid.New(), Role: role})
		}
		return c.Next()
	}
}

func TestAuthorizer_PolicyTable(t *testing.T) {
	a, err := NewAuthorizer()
	require.NoError(t, err)
	for perm, roles := range constants.PermissionRoles {
		for _, role := range roles {
			assert.True(t, a.Allowed(role, perm), "%s/%s", role, perm)
		}
	}
	assert.False(t, a.Allowed("tenant", constants.ManageAssets))
	assert.False(t, a.Allowed("consultant", constants.ManageOrg))
	assert.False(t, a.Allowed("tenant", constants.PurchaseCredits))
}

func TestAuthorizePermission(t *testing.T) {
	a, err := NewAuthorizer()
	require.NoError(t, err)

	cases := []struct {
		name string
		role string
		perm string
		want int
	}{
		{"owner manages org", "owner", constants.ManageOrg, fiber.StatusOK},
		{"tenant cannot manage assets", "tenant", constants.ManageAssets, fiber.StatusForbidden},
		{"no role", "", constants.ViewData, fiber.StatusUnauthorized},
		{"unknown permission", "owner", "launch_rockets", fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/x", withRole(tc.role), a.AuthorizePermission(tc.perm), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})
			resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	app := fiber.New()
	app.Use(rl.Handler())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))

	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS(CORSConfig{AllowedSuffix: ".greenledger.app", DevPassword: "letmein"}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://app.greenledger.app")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://app.greenledger.app", resp.Header.Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://preview.vercel.app")
	req.Header.Set("dev-password", "letmein")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/app", func(c *fiber.Ctx) error { return apperrors.NotFound("Asset not found") })
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusRequestEntityTooLarge, "Request Entity Too Large") })
	app.Get("/plain", func(c *fiber.Ctx) error { return errors.New("boom") })

	for path, want := range map[string]int{"/app": 404, "/fiber": 413, "/plain": 500, "/missing": 404} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, path)
		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), `"status":"error"`)
		if path == "/plain" {
			assert.NotContains(t, string(body), "boom")
		}
	}
}

func TestHealthMarker(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	app := fiber.New()
	app.Use(Tracing())
	app.Use(HealthMarker(rdb))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/fail", func(c *fiber.Ctx) error {
		return c.Status(500).JSON(fiber.Map{"status": "error", "error": fiber.Map{"message": "db down"}})
	})
	app.Get("/health/json", func(c *fiber.Ctx) error { return c.SendString("{}") })

	for _, p := range []string{"/ok", "/ok", "/fail", "/health/json"} {
		_, err := app.Test(httptest.NewRequest("GET", p, nil))
		require.NoError(t, err)
	}

	ctx := context.Background()
	total, _ := rdb.Get(ctx, KeyReqTotal).Int()
	errs, _ := rdb.Get(ctx, KeyReqErrors).Int()
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, errs)
	entries, err := rdb.LRange(ctx, KeyErrorLog, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0], "db down")
	assert.Contains(t, entries[0], "/fail")
}

func TestTracing_ReusesValidIncomingID(t *testing.T) {
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetTraceID(c)) })

	id := uuid.New().String()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", id)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, id, resp.Header.Get("X-Trace-Id"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", "<script>")
	resp, err = app.Test(req)
	require.NoError(t, err)
	_, perr := uuid.Parse(resp.Header.Get("X-Trace-Id"))
	assert.NoError(t, perr)
}
