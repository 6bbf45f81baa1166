package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/referralhub/referral_backend/config"
	"github.com/referralhub/referral_backend/controllers"
	"github.com/referralhub/referral_backend/middleware"
	"github.com/referralhub/referral_backend/repositories"
	"github.com/referralhub/referral_backend/routes"
	"github.com/referralhub/referral_backend/services"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to database
	client := config.ConnectDB()

	// Connect to Redis; without it the read paths recompute every request
	var cache services.AggregateCache = services.NoopCache{}
	if redisClient := config.ConnectRedis(); redisClient != nil {
		cache = services.NewTTLCache(services.NewRedisCacheClient(redisClient), nil)
	}

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Initialize repositories
	userRepo := repositories.NewUserRepository(client)
	rewardRepo := repositories.NewRewardRepository(client)

	// Initialize services
	referralService := services.NewReferralService(client, userRepo, rewardRepo, cache)

	// Initialize controllers
	authController := controllers.NewAuthController(userRepo, referralService)
	passwordController := controllers.NewPasswordController(userRepo)
	referralController := controllers.NewReferralController(userRepo, rewardRepo, cache)

	// Register routes
	routes.RegisterAuthRoutes(e, authController, passwordController)
	routes.RegisterReferralRoutes(e, referralController)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
