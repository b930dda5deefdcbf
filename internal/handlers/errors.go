package handlers

import (
	"errors"

	"perfpredict/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// StatusFor maps an error onto the HTTP status of its taxonomy class.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrDuplicateUser):
		return fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotFound):
		return fiber.StatusNotFound
	default:
		// ErrStorageUnavailable after startup is an internal fault too.
		return fiber.StatusInternalServerError
	}
}

// respondError writes {error: message}. Internal details are logged, not returned.
func respondError(c *fiber.Ctx, log logrus.FieldLogger, err error) error {
	status := StatusFor(err)
	entry := log.WithError(err).WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"status": status,
	})

	if status == fiber.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}
	return c.Status(status).JSON(fiber.Map{"error": PublicMessage(err)})
}

// PublicMessage is the client-facing text for err: the name of its taxonomy
// class, or the detail of a ValidationError. Wrapping context is dropped.
func PublicMessage(err error) string {
	var invalid *apperrors.ValidationError
	switch {
	case errors.As(err, &invalid):
		return invalid.Detail
	case errors.Is(err, apperrors.ErrValidation):
		return apperrors.ErrValidation.Error()
	case errors.Is(err, apperrors.ErrDuplicateUser):
		return apperrors.ErrDuplicateUser.Error()
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return apperrors.ErrInvalidCredentials.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		return apperrors.ErrNotFound.Error()
	default:
		return "internal server error"
	}
}

// badBody reports an unparsable request body.
func badBody(c *fiber.Ctx, log logrus.FieldLogger, err error) error {
	log.WithError(err).Debug("Error parsing request body")
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid request body",
	})
}
