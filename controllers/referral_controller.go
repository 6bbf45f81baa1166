// controllers/referral_controller.go
package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/referralhub/referral_backend/models"
	"github.com/referralhub/referral_backend/repositories"
	"github.com/referralhub/referral_backend/services"
)

const (
	// aggregateCacheTTL bounds how stale the referral read paths may get.
	aggregateCacheTTL = 10 * time.Minute

	referralHistoryLimit = 10
)

// ReferralController serves the referral read queries, always scoped to the
// authenticated caller's own account.
type ReferralController struct {
	users   repositories.UserRepository
	rewards repositories.RewardRepository
	cache   services.AggregateCache
}

// NewReferralController creates a new referral controller. cache may be a
// NoopCache when no backend is configured.
func NewReferralController(users repositories.UserRepository, rewards repositories.RewardRepository, cache services.AggregateCache) *ReferralController {
	return &ReferralController{
		users:   users,
		rewards: rewards,
		cache:   cache,
	}
}

// GetReferrals returns the caller's 10 most recent referrals, newest first,
// each joined with the referred user's username and email.
func (rc *ReferralController) GetReferrals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	userID, ok := c.Get("userId").(string)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "User ID not found in token",
		})
	}

	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}

	payload, err := rc.cache.GetOrCompute(ctx, services.ReferralHistoryKey(objID), aggregateCacheTTL, func(ctx context.Context) ([]byte, error) {
		if _, err := rc.users.FindByID(ctx, objID); err != nil {
			return nil, err
		}

		entries, err := rc.rewards.FindRecentByReferrer(ctx, objID, referralHistoryLimit)
		if err != nil {
			return nil, err
		}

		return json.Marshal(models.ReferralHistory{ReferralHistory: entries})
	})
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch referrals",
		})
	}

	return c.JSONBlob(http.StatusOK, payload)
}

// GetReferralStats returns the caller's referral totals: the stored counter
// and the sum of points over the reward ledger.
func (rc *ReferralController) GetReferralStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	userID, ok := c.Get("userId").(string)
	if !ok {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "User ID not found in token",
		})
	}

	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}

	payload, err := rc.cache.GetOrCompute(ctx, services.ReferralStatsKey(objID), aggregateCacheTTL, func(ctx context.Context) ([]byte, error) {
		user, err := rc.users.FindByID(ctx, objID)
		if err != nil {
			return nil, err
		}

		total, err := rc.rewards.SumPointsByReferrer(ctx, objID)
		if err != nil {
			return nil, err
		}

		return json.Marshal(models.ReferralStats{
			TotalReferrals: user.SuccessfulReferrals,
			TotalRewards:   total,
		})
	})
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch referral stats",
		})
	}

	return c.JSONBlob(http.StatusOK, payload)
}
