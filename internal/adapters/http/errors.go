package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/nearbite/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, bad_gateway, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

func buildError(c *fiber.Ctx, status int, code string, message string) APIError {
	reqID, _ := c.Locals("requestid").(string)
	return APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	}
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	return c.Status(status).JSON(buildError(c, status, code, message))
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errUnprocessable returns a 422 error.
func errUnprocessable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnprocessableEntity, "unprocessable", msg)
}

// errBadGateway returns a 502 error.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadGateway, "bad_gateway", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errFromDomain maps engine errors onto the error envelope.
func errFromDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrInvalidCoordinate):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrDegenerateGeometry):
		return errUnprocessable(c, err.Error())
	case errors.Is(err, domain.ErrTransport):
		return errBadGateway(c, err.Error())
	default:
		LoggerFromCtx(c.UserContext()).Error("unhandled error", "path", c.Path(), "error", err)
		return errInternal(c, "internal error")
	}
}
