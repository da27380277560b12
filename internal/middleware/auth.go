package middleware

import (
	"context"
	"errors"
	"strings"

	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/observability"
	"greenledger-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const principalLocal = "principal"

// ProfileResolver loads or lazily creates the profile behind a verified token.
type ProfileResolver interface {
	Resolve(ctx context.Context, id uuid.UUID, email string) (*domain.Profile, error)
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	Secret   []byte // Supabase JWT secret (HS256)
	Audience string
	Profiles ProfileResolver
	Cache    *PrincipalCache
	Metrics  *observability.Metrics
}

// Claims is the subset of the Supabase access token we read.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

var errBadToken = errors.New("invalid access token")

// ParseToken verifies an HS256 access token and returns the subject and email.
func ParseToken(secret []byte, audience, raw string) (uuid.UUID, string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return uuid.Nil, "", errBadToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", errBadToken
	}
	return id, strings.ToLower(claims.Email), nil
}

func bearer(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Authenticate resolves the bearer token into a principal when one is present.
// Requests without a token pass through; RequireAuth rejects them.
func Authenticate(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearer(c)
		if raw == "" {
			return c.Next()
		}
		id, email, err := ParseToken(cfg.Secret, cfg.Audience, raw)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}
		ctx := c.UserContext()

		p, err := cfg.Cache.Get(ctx, id)
		if err != nil {
			log.Warn().Err(err).Msg("Principal cache read failed")
		}
		cfg.Metrics.PrincipalCache(p != nil)
		if p == nil {
			profile, err := cfg.Profiles.Resolve(ctx, id, email)
			if err != nil {
				return response.FromError(c, err)
			}
			p = domain.PrincipalFromProfile(profile)
			if err := cfg.Cache.Set(ctx, p); err != nil {
				log.Warn().Err(err).Msg("Principal cache write failed")
			}
		}
		c.Locals(principalLocal, p)
		return c.Next()
	}
}

// RequireAuth rejects requests without a resolved principal.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetPrincipal(c) == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// RequireOrg rejects principals that have not joined an organization yet.
func RequireOrg() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := GetPrincipal(c)
		if p == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !p.HasOrg() {
			return response.Error(c, "Complete onboarding before accessing organization data", fiber.StatusForbidden, nil)
		}
		return c.Next()
	}
}

// GetPrincipal returns the authenticated caller or nil.
func GetPrincipal(c *fiber.Ctx) *domain.Principal {
	p, _ := c.Locals(principalLocal).(*domain.Principal)
	return p
}

// SetPrincipal is used by handlers that change the caller's org or role and by tests.
func SetPrincipal(c *fiber.Ctx, p *domain.Principal) {
	c.Locals(principalLocal, p)
}
