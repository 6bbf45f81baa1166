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

// UserRepository is the account store. Lookups return
// models.ErrAccountNotFound when no account matches.
type UserRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIdentifier(ctx context.Context, emailOrUsername string) (*models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	IncrementSuccessfulReferrals(ctx context.Context, id primitive.ObjectID) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expiresAt time.Time) error
	FindByResetToken(ctx context.Context, token string) (*models.User, error)
	ClearResetToken(ctx context.Context, id primitive.ObjectID) error
}

type MongoUserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Client) *MongoUserRepository {
	return &MongoUserRepository{
		collection: config.GetCollection(db, "users"),
	}
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrAccountNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) FindByIdentifier(ctx context.Context, emailOrUsername string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"$or": []bson.M{
		{"email": emailOrUsername},
		{"username": emailOrUsername},
	}})
}

func (r *MongoUserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"$or": []bson.M{
		{"username": username},
		{"email": email},
	}})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.ErrDuplicateAccount
		}
		return nil, err
	}
	return user, nil
}

// IncrementSuccessfulReferrals bumps the denormalized referral counter with
// an atomic $inc, so concurrent credits to the same referrer cannot lose
// updates.
func (r *MongoUserRepository) IncrementSuccessfulReferrals(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"successfulReferrals": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"password": passwordHash, "updatedAt": time.Now()},
	})
	return err
}

func (r *MongoUserRepository) SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expiresAt time.Time) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"resetPasswordToken":  token,
			"resetTokenExpiresAt": expiresAt,
			"updatedAt":           time.Now(),
		},
	})
	return err
}

func (r *MongoUserRepository) FindByResetToken(ctx context.Context, token string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"resetPasswordToken": token})
}

func (r *MongoUserRepository) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{
		"$unset": bson.M{"resetPasswordToken": "", "resetTokenExpiresAt": ""},
		"$set":   bson.M{"updatedAt": time.Now()},
	})
	return err
}
