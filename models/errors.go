// models/errors.go
package models

import "errors"

// Referral validation failures abort the registration wholesale.
var (
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrSelfReferral        = errors.New("cannot use your own referral code")
	ErrReferralExpired     = errors.New("referral code has expired")
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateAccount = errors.New("email or username already exists")
)
