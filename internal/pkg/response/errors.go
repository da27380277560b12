package response

import (
	"greenledger-backend/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

var statusByCode = map[apperrors.Code]int{
	apperrors.CodeValidation:  fiber.StatusBadRequest,
	apperrors.CodeAuth:        fiber.StatusUnauthorized,
	apperrors.CodeForbidden:   fiber.StatusForbidden,
	apperrors.CodeNotFound:    fiber.StatusNotFound,
	apperrors.CodeConflict:    fiber.StatusConflict,
	apperrors.CodeStorage:     fiber.StatusBadGateway,
	apperrors.CodeUnavailable: fiber.StatusServiceUnavailable,
	apperrors.CodePersistence: fiber.StatusInternalServerError,
}

// StatusFor returns the HTTP status for an error code (500 when unknown).
func StatusFor(code apperrors.Code) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return fiber.StatusInternalServerError
}

// FromError writes err in the standard error format. AppErrors keep their message;
// anything else becomes a generic 500. Causes are logged, never returned.
func FromError(c *fiber.Ctx, err error) error {
	traceID, _ := c.Locals("trace_id").(string)
	ae, ok := apperrors.As(err)
	if !ok {
		log.Error().Err(err).Str("trace_id", traceID).Str("path", c.Path()).Msg("Unhandled error")
		return Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	status := StatusFor(ae.Code)
	if status >= 500 {
		log.Error().Err(ae.Err).Str("trace_id", traceID).Str("code", string(ae.Code)).Str("path", c.Path()).Msg(ae.Message)
	}
	var details interface{}
	if len(ae.Meta) > 0 {
		details = ae.Meta
	}
	return Error(c, ae.Message, status, details)
}
