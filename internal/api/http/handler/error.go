package handler

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/dtroode/vverify-server/internal/logger"
	"github.com/dtroode/vverify-server/internal/model"
)

const internalErrorMessage = "Server error"

func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindBadRequest, model.KindConflict, model.KindInvalidCredentials,
		model.KindInvalidOTP, model.KindOTPExpired:
		return http.StatusBadRequest
	case model.KindUnauthenticated:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned by handlers and middleware as {message}.
// Anything that is not a *model.Error or *fiber.Error is logged and hidden behind a generic 500.
func ErrorHandler(logger *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *model.Error
		if errors.As(err, &appErr) {
			status := statusFor(appErr.Kind)
			if status == http.StatusInternalServerError {
				return c.Status(status).JSON(fiber.Map{"message": internalErrorMessage})
			}
			body := fiber.Map{"message": appErr.Message}
			if appErr.RequiresVerification {
				body["requiresVerification"] = true
			}
			return c.Status(status).JSON(body)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}

		logger.Error("HTTP: request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err.Error())
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": internalErrorMessage})
	}
}
