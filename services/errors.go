package services

import (
	"errors"
	"log"

	"bounty-competition-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// httpStatusFor maps stable error kinds to HTTP statuses.
func httpStatusFor(kind models.ErrorKind) int {
	switch kind {
	case models.ErrKindValidation:
		return fiber.StatusBadRequest
	case models.ErrKindNotFound:
		return fiber.StatusNotFound
	case models.ErrKindPrecondition, models.ErrKindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the JSON error body for a failed operation. Internal
// errors are logged and surfaced as a generic failure without detail.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return c.Status(httpStatusFor(appErr.Kind)).JSON(fiber.Map{
			"error": appErr.Message,
			"kind":  appErr.Kind,
		})
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "resource not found",
			"kind":  models.ErrKindNotFound,
		})
	}
	log.Printf("❌ [INTERNAL] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal error",
		"kind":  models.ErrKindInternal,
	})
}
