package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/referralhub/referral_backend/config"
	"github.com/referralhub/referral_backend/models"
)

// RewardRepository is the append-only reward ledger.
type RewardRepository interface {
	Create(ctx context.Context, reward *models.Reward) (*models.Reward, error)
	FindRecentByReferrer(ctx context.Context, referrer primitive.ObjectID, limit int64) ([]models.ReferralHistoryEntry, error)
	SumPointsByReferrer(ctx context.Context, referrer primitive.ObjectID) (int, error)
}

type MongoRewardRepository struct {
	collection *mongo.Collection
}

func NewRewardRepository(db *mongo.Client) *MongoRewardRepository {
	return &MongoRewardRepository{
		collection: config.GetCollection(db, "rewards"),
	}
}

func (r *MongoRewardRepository) Create(ctx context.Context, reward *models.Reward) (*models.Reward, error) {
	if reward.ID.IsZero() {
		reward.ID = primitive.NewObjectID()
	}
	if reward.CreatedAt.IsZero() {
		reward.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, reward)
	if err != nil {
		return nil, err
	}
	return reward, nil
}

// FindRecentByReferrer returns the most recent ledger records for a referrer,
// newest first, each joined with the referred user's username and email.
func (r *MongoRewardRepository) FindRecentByReferrer(ctx context.Context, referrer primitive.ObjectID, limit int64) ([]models.ReferralHistoryEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"referrer": referrer}}},
		{{Key: "$sort", Value: bson.M{"createdAt": -1}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "referredUser",
			"foreignField": "_id",
			"as":           "referred",
		}}},
		{{Key: "$unwind", Value: "$referred"}},
		{{Key: "$project", Value: bson.M{
			"_id":          0,
			"referredUser": "$referred.username",
			"email":        "$referred.email",
			"points":       1,
			"status":       1,
			"date":         "$createdAt",
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []models.ReferralHistoryEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *MongoRewardRepository) SumPointsByReferrer(ctx context.Context, referrer primitive.ObjectID) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"referrer": referrer}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$points"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}
