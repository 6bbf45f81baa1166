// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User model
type User struct {
	ID                  primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Username            string              `json:"username" bson:"username"`
	Email               string              `json:"email" bson:"email"`
	Password            string              `json:"password,omitempty" bson:"password"`
	ReferralCode        string              `json:"referralCode,omitempty" bson:"referralCode,omitempty"`
	ReferredBy          *primitive.ObjectID `json:"referredBy,omitempty" bson:"referredBy,omitempty"`
	SuccessfulReferrals int                 `json:"successfulReferrals" bson:"successfulReferrals"`
	ResetPasswordToken  string              `json:"-" bson:"resetPasswordToken,omitempty"`
	ResetTokenExpiresAt time.Time           `json:"-" bson:"resetTokenExpiresAt,omitempty"`
	CreatedAt           time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt" bson:"updatedAt"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
