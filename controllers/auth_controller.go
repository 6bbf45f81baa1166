// controllers/auth_controller.go
package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/referralhub/referral_backend/middleware"
	"github.com/referralhub/referral_backend/models"
	"github.com/referralhub/referral_backend/repositories"
	"github.com/referralhub/referral_backend/services"
	"github.com/referralhub/referral_backend/utils"
)

// AuthController contains registration and authentication logic
type AuthController struct {
	users     repositories.UserRepository
	referrals *services.ReferralService
	logger    *log.Logger
}

// NewAuthController creates a new auth controller
func NewAuthController(users repositories.UserRepository, referrals *services.ReferralService) *AuthController {
	return &AuthController{
		users:     users,
		referrals: referrals,
		logger:    log.New(os.Stdout, "[AUTH] ", log.LstdFlags),
	}
}

// Register handles new user registration. A referral code (the referrer's
// username) may be passed as the "referral" query parameter; any referral
// validation failure aborts the registration entirely.
func (ac *AuthController) Register(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	req.Username = utils.SanitizeInput(req.Username)
	referralUsername := utils.SanitizeInput(c.QueryParam("referral"))

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Please fill in all fields",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}
	req.Email = email

	if !utils.IsStrongPassword(req.Password) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Password must be at least 8 characters long, include one uppercase letter, one lowercase letter, and one number",
		})
	}

	// Referral validation runs before the account is created; a bad code
	// blocks the registration rather than degrading to an unreferred signup.
	var referrer *models.User
	if referralUsername != "" {
		referrer, err = ac.referrals.ValidateReferral(ctx, referralUsername, req.Username)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrInvalidReferralCode):
				return c.JSON(http.StatusBadRequest, models.Response{
					Status:  http.StatusBadRequest,
					Message: "Invalid referral code",
				})
			case errors.Is(err, models.ErrSelfReferral):
				return c.JSON(http.StatusBadRequest, models.Response{
					Status:  http.StatusBadRequest,
					Message: "Cannot use your own referral code",
				})
			case errors.Is(err, models.ErrReferralExpired):
				return c.JSON(http.StatusBadRequest, models.Response{
					Status:  http.StatusBadRequest,
					Message: "Referral code has expired",
				})
			default:
				return c.JSON(http.StatusInternalServerError, models.Response{
					Status:  http.StatusInternalServerError,
					Message: "Failed to validate referral code",
				})
			}
		}
	}

	exists, err := ac.users.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check existing users",
		})
	}
	if exists {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email or Username already exists",
		})
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	now := time.Now()
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		Password:     hash,
		ReferralCode: os.Getenv("FRONTEND_URL") + "/register?referral=" + req.Username,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if referrer != nil {
		user.ReferredBy = &referrer.ID
	}

	created, err := ac.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateAccount) {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Email or Username already exists",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create user",
		})
	}

	// The account is durable at this point. A failed credit is logged and
	// does not fail the registration.
	if referrer != nil {
		if err := ac.referrals.CreditReferral(ctx, referrer.ID, created.ID); err != nil {
			ac.logger.Printf("failed to credit referral %s -> %s: %v",
				referrer.ID.Hex(), created.ID.Hex(), err)
		}
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "User registered successfully!",
	})
}

// Login authenticates by email or username and issues a session token, both
// in the response body and as an HttpOnly cookie.
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email/username and password are required",
		})
	}

	user, err := ac.users.FindByIdentifier(ctx, req.EmailOrUsername)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid email/username or password user not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	if err := utils.CheckPassword(user.Password, req.Password); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email/username or password password incorrect",
		})
	}

	token, err := middleware.GenerateJWT(user.ID.Hex(), user.Username, user.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data:    map[string]string{"token": token},
	})
}

// Logout clears the session cookie
func (ac *AuthController) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
	})

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logout successful",
	})
}
