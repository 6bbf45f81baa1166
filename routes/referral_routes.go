package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/referralhub/referral_backend/controllers"
	"github.com/referralhub/referral_backend/middleware"
)

// RegisterReferralRoutes sets up the authenticated referral read routes
func RegisterReferralRoutes(e *echo.Echo, referralController *controllers.ReferralController) {
	group := e.Group("/api")
	group.Use(middleware.JWTMiddleware())

	group.GET("/referrals", referralController.GetReferrals)
	group.GET("/referral-stats", referralController.GetReferralStats)
}
