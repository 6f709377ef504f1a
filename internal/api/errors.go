package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/Sukhmangill977/majoor2.0/internal/service"
)

// ErrorResponse is the envelope every failed request gets, whatever layer it
// failed in.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// ErrorHandler normalizes errors escaping a handler. Anything that is not a
// *fiber.Error is unexpected: it is logged with full detail and the client
// only sees a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else {
		slog.Error("Unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(ErrorResponse{
		Success:    false,
		Message:    message,
		StatusCode: code,
	})
}

// mapServiceError translates service sentinels into HTTP errors; anything
// else passes through untouched and ends up as a 500.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	return err
}
