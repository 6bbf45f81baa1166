// controllers/password_controller.go
package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/referralhub/referral_backend/models"
	"github.com/referralhub/referral_backend/repositories"
	"github.com/referralhub/referral_backend/utils"
)

const resetTokenValidity = 15 * time.Minute

// PasswordController handles password reset functionality
type PasswordController struct {
	users     repositories.UserRepository
	sendEmail func(email, username, resetLink string) error
	logger    *log.Logger
}

// NewPasswordController creates a new password controller
func NewPasswordController(users repositories.UserRepository) *PasswordController {
	return &PasswordController{
		users:     users,
		sendEmail: utils.SendPasswordResetEmail,
		logger:    log.New(os.Stdout, "[PASSWORD] ", log.LstdFlags),
	}
}

// ForgotPassword initiates the password reset process
func (pc *PasswordController) ForgotPassword(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var req models.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email is required",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	user, err := pc.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "No account associated with this email",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check user",
		})
	}

	token := uuid.NewString()
	expiry := time.Now().Add(resetTokenValidity)

	if err := pc.users.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to save reset token",
		})
	}

	resetLink := os.Getenv("FRONTEND_URL") + "/reset-password?token=" + token
	if err := pc.sendEmail(user.Email, user.Username, resetLink); err != nil {
		pc.logger.Printf("failed to send reset email to %s: %v", user.Email, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to send password reset email",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password reset email sent",
	})
}

// ResetPassword sets a new password for the account holding a valid reset token
func (pc *PasswordController) ResetPassword(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var req models.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Token and new password are required",
		})
	}

	if !utils.IsStrongPassword(req.NewPassword) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Password must be at least 8 characters long, include one uppercase letter, one lowercase letter, and one number",
		})
	}

	user, err := pc.users.FindByResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid or expired token",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check reset token",
		})
	}

	if time.Now().After(user.ResetTokenExpiresAt) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid or expired token",
		})
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	if err := pc.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update password",
		})
	}

	if err := pc.users.ClearResetToken(ctx, user.ID); err != nil {
		pc.logger.Printf("failed to clear reset token for %s: %v", user.ID.Hex(), err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Password has been reset successfully",
	})
}
