package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/loyalty/internal/config"
	"github.com/example/loyalty/internal/loyalty"
	"github.com/example/loyalty/internal/services"
)

// ErrorHandler renders every error through the JSON envelope the API
// promises. Internal error detail is suppressed outside development.
func ErrorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := err.Error()

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		case errors.Is(err, gorm.ErrRecordNotFound):
			code = fiber.StatusNotFound
			message = "record not found"
		case errors.Is(err, gorm.ErrDuplicatedKey):
			code = fiber.StatusConflict
			message = "duplicate value for a unique field"
		case isDomainError(err):
			code = fiber.StatusBadRequest
		}

		if code == fiber.StatusInternalServerError {
			log.Printf("[HTTP] %s %s failed: %v", c.Method(), c.Path(), err)
			if cfg.AppEnv != "development" {
				message = "internal server error"
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"message": message,
		})
	}
}

// Business-rule violations that map to a 400 rather than a 500.
var domainErrors = []error{
	loyalty.ErrRewardInactive,
	loyalty.ErrRewardNotStarted,
	loyalty.ErrRewardEnded,
	loyalty.ErrRewardExhausted,
	loyalty.ErrCustomerLimit,
	loyalty.ErrDayNotAvailable,
	loyalty.ErrTimeNotAvailable,
	loyalty.ErrInsufficientPoints,
	loyalty.ErrInvalidTimeRange,
	loyalty.ErrNoOTP,
	loyalty.ErrOTPExpired,
	loyalty.ErrTooManyAttempts,
	loyalty.ErrInvalidOTP,
	services.ErrNotRedeemable,
	services.ErrAlreadyConcluded,
}

func isDomainError(err error) bool {
	for _, domain := range domainErrors {
		if errors.Is(err, domain) {
			return true
		}
	}
	return false
}
