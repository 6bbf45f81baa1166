package services

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/referralhub/referral_backend/models"
	"github.com/referralhub/referral_backend/repositories"
)

// ReferralValidityWindow is how long after a referrer's account creation
// their referral code stays usable.
const ReferralValidityWindow = 7 * 24 * time.Hour

// ReferralHistoryKey is the cache key for a referrer's recent referral list.
func ReferralHistoryKey(id primitive.ObjectID) string {
	return "referrals:" + id.Hex()
}

// ReferralStatsKey is the cache key for a referrer's aggregate totals.
func ReferralStatsKey(id primitive.ObjectID) string {
	return "referralStats:" + id.Hex()
}

// ReferralService validates referral codes and credits rewards against the
// ledger and the denormalized counter.
type ReferralService struct {
	client  *mongo.Client
	users   repositories.UserRepository
	rewards repositories.RewardRepository
	cache   AggregateCache
	logger  *log.Logger
}

// NewReferralService wires the accounting engine. client may be nil in
// environments without session support; credits then fall back to ordered
// sequential writes.
func NewReferralService(client *mongo.Client, users repositories.UserRepository, rewards repositories.RewardRepository, cache AggregateCache) *ReferralService {
	return &ReferralService{
		client:  client,
		users:   users,
		rewards: rewards,
		cache:   cache,
		logger:  log.New(os.Stdout, "[REFERRAL] ", log.LstdFlags),
	}
}

// ValidateReferral resolves a referral code (the referrer's username) and
// checks it may be applied to a registration under newUsername. Any failure
// here aborts the registration; no account is created.
func (s *ReferralService) ValidateReferral(ctx context.Context, referralUsername, newUsername string) (*models.User, error) {
	referrer, err := s.users.FindByUsername(ctx, referralUsername)
	if err != nil {
		if err == models.ErrAccountNotFound {
			return nil, models.ErrInvalidReferralCode
		}
		return nil, err
	}

	if referrer.Username == newUsername {
		return nil, models.ErrSelfReferral
	}

	if time.Since(referrer.CreatedAt) > ReferralValidityWindow {
		return nil, models.ErrReferralExpired
	}

	return referrer, nil
}

// CreditReferral increments the referrer's counter and appends a Credited
// ledger record for the newly registered user. It runs only after the new
// account is durably created, so the ledger's referredUser reference always
// resolves. The affected aggregate cache keys are invalidated on success.
func (s *ReferralService) CreditReferral(ctx context.Context, referrerID, referredUserID primitive.ObjectID) error {
	err := s.creditInTransaction(ctx, referrerID, referredUserID)
	if err != nil && isTransactionUnsupported(err) {
		// Standalone deployments have no sessions; keep the write order
		// (counter, then ledger) instead.
		err = s.creditSequential(ctx, referrerID, referredUserID)
	}
	if err != nil {
		return err
	}

	if err := s.cache.Invalidate(ctx, ReferralHistoryKey(referrerID), ReferralStatsKey(referrerID)); err != nil {
		s.logger.Printf("failed to invalidate aggregates for %s: %v", referrerID.Hex(), err)
	}

	return nil
}

func (s *ReferralService) creditInTransaction(ctx context.Context, referrerID, referredUserID primitive.ObjectID) error {
	if s.client == nil {
		return s.creditSequential(ctx, referrerID, referredUserID)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := s.users.IncrementSuccessfulReferrals(sc, referrerID); err != nil {
			return nil, err
		}
		if _, err := s.rewards.Create(sc, s.newReward(referrerID, referredUserID)); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

func (s *ReferralService) creditSequential(ctx context.Context, referrerID, referredUserID primitive.ObjectID) error {
	if err := s.users.IncrementSuccessfulReferrals(ctx, referrerID); err != nil {
		return err
	}
	if _, err := s.rewards.Create(ctx, s.newReward(referrerID, referredUserID)); err != nil {
		return err
	}
	return nil
}

func (s *ReferralService) newReward(referrerID, referredUserID primitive.ObjectID) *models.Reward {
	return &models.Reward{
		Referrer:     referrerID,
		ReferredUser: referredUserID,
		Points:       models.DefaultRewardPoints,
		Status:       models.RewardStatusCredited,
		CreatedAt:    time.Now(),
	}
}

func isTransactionUnsupported(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "Transaction numbers") ||
		strings.Contains(err.Error(), "transactions are not supported")
}
