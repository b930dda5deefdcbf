package handlers

import (
	"perfpredict/internal/middleware"
	"perfpredict/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// UserHandler serves profile management for the authenticated user.
type UserHandler struct {
	authService *services.AuthService
	log         logrus.FieldLogger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{
		authService: authService,
		log:         log,
	}
}

// RegisterRoutes registers the profile routes. router must already require authentication.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/user")
	userRoutes.Get("/profile", h.HandleGetProfile)
	userRoutes.Put("/profile", h.HandleUpdateProfile)
	userRoutes.Put("/password", h.HandleChangePassword)
	userRoutes.Put("/email", h.HandleChangeEmail)
	userRoutes.Delete("/account", h.HandleDeleteAccount)
}

// HandleGetProfile returns the current user without its password hash.
func (h *UserHandler) HandleGetProfile(c *fiber.Ctx) error {
	user, err := h.authService.GetProfile(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// UpdateProfileRequest represents the request body for a profile update.
type UpdateProfileRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
}

// HandleUpdateProfile replaces username and email together.
func (h *UserHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.log, err)
	}
	if err := services.ValidateStruct(req); err != nil {
		return respondError(c, h.log, err)
	}

	if err := h.authService.UpdateProfile(c.UserContext(), middleware.UserID(c), req.Username, req.Email); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Profile updated successfully"})
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// HandleChangePassword verifies the current password and stores the new one.
func (h *UserHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.log, err)
	}
	if err := services.ValidateStruct(req); err != nil {
		return respondError(c, h.log, err)
	}

	err := h.authService.ChangePassword(c.UserContext(), middleware.UserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

// ChangeEmailRequest represents the request body for an email change.
type ChangeEmailRequest struct {
	NewEmail string `json:"newEmail" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleChangeEmail verifies the password and moves the account to a new email.
func (h *UserHandler) HandleChangeEmail(c *fiber.Ctx) error {
	var req ChangeEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.log, err)
	}
	if err := services.ValidateStruct(req); err != nil {
		return respondError(c, h.log, err)
	}

	if err := h.authService.ChangeEmail(c.UserContext(), middleware.UserID(c), req.NewEmail, req.Password); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Email updated successfully"})
}

// HandleDeleteAccount removes the user and all of its predictions.
func (h *UserHandler) HandleDeleteAccount(c *fiber.Ctx) error {
	if err := h.authService.DeleteAccount(c.UserContext(), middleware.UserID(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Account deleted successfully"})
}
