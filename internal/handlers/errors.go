package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"

	"github.com/backendkit/backendkit/internal/dto"
	"github.com/backendkit/backendkit/internal/services"
	"github.com/backendkit/backendkit/internal/tenant"
)

type errorMapping struct {
	target error
	status int
	label  string
}

// Order matters: the first matching sentinel wins.
var errorMappings = []errorMapping{
	{services.ErrValidation, fiber.StatusBadRequest, "Validation error"},
	{services.ErrInvalidState, fiber.StatusBadRequest, "Invalid state"},
	{services.ErrOAuthEmailMissing, fiber.StatusBadRequest, "Validation error"},
	{services.ErrNoBillingCustomer, fiber.StatusBadRequest, "No billing account"},
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized, "Invalid credentials"},
	{services.ErrSocialLoginRequired, fiber.StatusUnauthorized, "Social login required"},
	{services.ErrUserNotFound, fiber.StatusNotFound, "Not found"},
	{services.ErrSubscriptionNotFound, fiber.StatusNotFound, "Not found"},
	{tenant.ErrTenantNotFound, fiber.StatusNotFound, "Not found"},
	{services.ErrUnknownProvider, fiber.StatusNotFound, "Not found"},
	{services.ErrEmailTaken, fiber.StatusConflict, "Conflict"},
	{services.ErrOAuthAccountConflict, fiber.StatusConflict, "Conflict"},
	{services.ErrProviderNotConfigured, fiber.StatusServiceUnavailable, "Provider not configured"},
}

// respond writes the mapped status for a known service error. Unknown
// errors are returned unchanged for the app error handler.
func respond(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return c.Status(m.status).JSON(dto.ErrorResponse{
				Error:   m.label,
				Message: message(err, m.target),
			})
		}
	}
	return err
}

// message drops the sentinel prefix from wrapped validation errors.
func message(err, target error) string {
	msg := err.Error()
	if trimmed := strings.TrimPrefix(msg, target.Error()+": "); trimmed != msg {
		return trimmed
	}
	return msg
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error:   "Bad request",
		Message: msg,
	})
}

// NewErrorHandler is the app-wide catch-all. Fiber errors keep their status;
// anything else is a 500 whose detail is hidden in production.
func NewErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		label := "Internal server error"
		msg := err.Error()

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			label = e.Message
		}

		if code >= fiber.StatusInternalServerError {
			slog.Error("request failed",
				"error", err,
				"path", c.Path(),
				"method", c.Method(),
				"trace_id", c.GetRespHeader(fiber.HeaderXRequestID),
			)
			if hub := sentryfiber.GetHubFromContext(c); hub != nil {
				hub.CaptureException(err)
			} else {
				sentry.CaptureException(err)
			}
			if production {
				msg = "An unexpected error occurred"
			}
		}

		return c.Status(code).JSON(dto.ErrorResponse{
			Error:   label,
			Message: msg,
		})
	}
}
