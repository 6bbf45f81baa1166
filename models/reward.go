// models/reward.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RewardStatus string

const (
	RewardStatusPending  RewardStatus = "Pending"
	RewardStatusCredited RewardStatus = "Credited"
)

// DefaultRewardPoints is the point value credited per successful referral.
const DefaultRewardPoints = 10

// Reward is an append-only ledger record. Records are immutable once created;
// at most one record exists per referred user.
type Reward struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Referrer     primitive.ObjectID `json:"referrer" bson:"referrer"`
	ReferredUser primitive.ObjectID `json:"referredUser" bson:"referredUser"`
	Points       int                `json:"points" bson:"points"`
	Status       RewardStatus       `json:"status" bson:"status"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}

// ReferralHistoryEntry is a ledger record joined with the referred user's
// identity, as served on the read path.
type ReferralHistoryEntry struct {
	ReferredUser string       `json:"referredUser" bson:"referredUser"`
	Email        string       `json:"email" bson:"email"`
	Points       int          `json:"points" bson:"points"`
	Status       RewardStatus `json:"status" bson:"status"`
	Date         time.Time    `json:"date" bson:"date"`
}

type ReferralHistory struct {
	ReferralHistory []ReferralHistoryEntry `json:"referralHistory"`
}

type ReferralStats struct {
	TotalReferrals int `json:"totalReferrals"`
	TotalRewards   int `json:"totalRewards"`
}
