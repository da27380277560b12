package request

import (
	"strings"
	"time"

	"greenledger-backend/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// BindJSON parses the request body into v. An empty body, a malformed body or a
// missing JSON content type is a validation error.
func BindJSON(c *fiber.Ctx, v interface{}) error {
	if len(c.Body()) == 0 {
		return apperrors.Validation("Request body is required")
	}
	if err := c.BodyParser(v); err != nil {
		return apperrors.Validation("Request body is not valid JSON")
	}
	return nil
}

// UUIDParam parses a route parameter. Malformed ids are reported as not found so
// callers cannot distinguish them from ids of other organizations.
func UUIDParam(c *fiber.Ctx, name, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperrors.NotFound(what + " not found")
	}
	return id, nil
}

// Date parses YYYY-MM-DD or RFC 3339.
func Date(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, apperrors.Validation(field + " must be a date (YYYY-MM-DD)").WithMeta(field, "invalid date")
}
