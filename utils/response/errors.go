package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/schoolpulse/api/services"
)

// FromServiceError maps service sentinel errors onto the HTTP envelope.
// Unrecognized errors become 500 without leaking internals.
func FromServiceError(c *fiber.Ctx, err error) error {
	if fields, ok := services.AsFieldErrors(err); ok {
		return ValidationError(c, fields)
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		return NotFound(c, err.Error())
	case errors.Is(err, services.ErrDependencyGap):
		return NotFound(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		return Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		return BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		return Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return Forbidden(c, err.Error())
	default:
		return InternalServerError(c, "Something went wrong")
	}
}
