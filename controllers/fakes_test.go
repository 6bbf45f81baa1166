package controllers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/referralhub/referral_backend/models"
	"github.com/referralhub/referral_backend/services"
)

type requestValidator struct {
	validator *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

// newTestEcho mirrors the server setup: handlers rely on c.Validate, so the
// echo instance carries the same validator main wires up.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &requestValidator{validator: validator.New()}
	return e
}

// fakeUsersRepo is an in-memory account store for handler tests.
type fakeUsersRepo struct {
	users []*models.User

	existsErr error
	createErr error
	incErr    error
}

func (f *fakeUsersRepo) add(u *models.User) *models.User {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	f.users = append(f.users, u)
	return u
}

func (f *fakeUsersRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, models.ErrAccountNotFound
}

func (f *fakeUsersRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, models.ErrAccountNotFound
}

func (f *fakeUsersRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, models.ErrAccountNotFound
}

func (f *fakeUsersRepo) FindByIdentifier(ctx context.Context, emailOrUsername string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == emailOrUsername || u.Username == emailOrUsername {
			return u, nil
		}
	}
	return nil, models.ErrAccountNotFound
}

func (f *fakeUsersRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.add(user), nil
}

func (f *fakeUsersRepo) IncrementSuccessfulReferrals(ctx context.Context, id primitive.ObjectID) error {
	if f.incErr != nil {
		return f.incErr
	}
	u, err := f.FindByID(ctx, id)
	if err != nil {
		return err
	}
	u.SuccessfulReferrals++
	return nil
}

func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	u, err := f.FindByID(ctx, id)
	if err != nil {
		return err
	}
	u.Password = passwordHash
	return nil
}

func (f *fakeUsersRepo) SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expiresAt time.Time) error {
	u, err := f.FindByID(ctx, id)
	if err != nil {
		return err
	}
	u.ResetPasswordToken = token
	u.ResetTokenExpiresAt = expiresAt
	return nil
}

func (f *fakeUsersRepo) FindByResetToken(ctx context.Context, token string) (*models.User, error) {
	for _, u := range f.users {
		if u.ResetPasswordToken != "" && u.ResetPasswordToken == token {
			return u, nil
		}
	}
	return nil, models.ErrAccountNotFound
}

func (f *fakeUsersRepo) ClearResetToken(ctx context.Context, id primitive.ObjectID) error {
	u, err := f.FindByID(ctx, id)
	if err != nil {
		return err
	}
	u.ResetPasswordToken = ""
	u.ResetTokenExpiresAt = time.Time{}
	return nil
}

// fakeRewardsRepo is an in-memory reward ledger. The join is resolved
// against the paired users repo.
type fakeRewardsRepo struct {
	users   *fakeUsersRepo
	rewards []*models.Reward

	findCalls int
	sumCalls  int
}

func (f *fakeRewardsRepo) Create(ctx context.Context, reward *models.Reward) (*models.Reward, error) {
	if reward.ID.IsZero() {
		reward.ID = primitive.NewObjectID()
	}
	f.rewards = append(f.rewards, reward)
	return reward, nil
}

func (f *fakeRewardsRepo) FindRecentByReferrer(ctx context.Context, referrer primitive.ObjectID, limit int64) ([]models.ReferralHistoryEntry, error) {
	f.findCalls++
	entries := []models.ReferralHistoryEntry{}
	for i := len(f.rewards) - 1; i >= 0 && int64(len(entries)) < limit; i-- {
		r := f.rewards[i]
		if r.Referrer != referrer {
			continue
		}
		referred, err := f.users.FindByID(ctx, r.ReferredUser)
		if err != nil {
			continue
		}
		entries = append(entries, models.ReferralHistoryEntry{
			ReferredUser: referred.Username,
			Email:        referred.Email,
			Points:       r.Points,
			Status:       r.Status,
			Date:         r.CreatedAt,
		})
	}
	return entries, nil
}

func (f *fakeRewardsRepo) SumPointsByReferrer(ctx context.Context, referrer primitive.ObjectID) (int, error) {
	f.sumCalls++
	total := 0
	for _, r := range f.rewards {
		if r.Referrer == referrer {
			total += r.Points
		}
	}
	return total, nil
}

// memoryCacheStore backs a TTLCache in handler tests.
type memoryCacheStore struct {
	entries map[string][]byte
}

func newMemoryCacheStore() *memoryCacheStore {
	return &memoryCacheStore{entries: make(map[string][]byte)}
}

func (m *memoryCacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m.entries[key]; ok {
		return v, nil
	}
	return nil, services.ErrCacheMiss
}

func (m *memoryCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.entries[key] = value
	return nil
}

func (m *memoryCacheStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}
