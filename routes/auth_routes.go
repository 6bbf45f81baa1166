package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/referralhub/referral_backend/controllers"
)

// RegisterAuthRoutes sets up the public authentication routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController, passwordController *controllers.PasswordController) {
	e.POST("/api/auth/register", authController.Register)
	e.POST("/api/auth/login", authController.Login)
	e.POST("/api/auth/logout", authController.Logout)
	e.POST("/api/auth/forgot-password", passwordController.ForgotPassword)
	e.POST("/api/auth/reset-password", passwordController.ResetPassword)
}
