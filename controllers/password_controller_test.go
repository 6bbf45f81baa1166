package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/referralhub/referral_backend/models"
	"github.com/referralhub/referral_backend/utils"
)

type sentEmail struct {
	to       string
	username string
	link     string
}

func newPasswordTestEnv() (*PasswordController, *fakeUsersRepo, *[]sentEmail) {
	users := &fakeUsersRepo{}
	pc := NewPasswordController(users)

	sent := &[]sentEmail{}
	pc.sendEmail = func(email, username, resetLink string) error {
		*sent = append(*sent, sentEmail{to: email, username: username, link: resetLink})
		return nil
	}
	return pc, users, sent
}

func doPasswordPost(t *testing.T, handler echo.HandlerFunc, path string, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := newTestEcho()

	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(b)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := handler(e.NewContext(req, rec))
	require.NoError(t, err)
	return rec
}

func TestForgotPasswordSendsResetLink(t *testing.T) {
	pc, users, sent := newPasswordTestEnv()
	alice := users.add(&models.User{Username: "alice", Email: "a@x.com", CreatedAt: time.Now()})

	rec := doPasswordPost(t, pc.ForgotPassword, "/api/auth/forgot-password", map[string]string{"email": "a@x.com"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password reset email sent")

	require.Len(t, *sent, 1)
	assert.Equal(t, "a@x.com", (*sent)[0].to)
	assert.Equal(t, "alice", (*sent)[0].username)

	require.NotEmpty(t, alice.ResetPasswordToken)
	assert.Contains(t, (*sent)[0].link, alice.ResetPasswordToken)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), alice.ResetTokenExpiresAt, time.Minute)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	pc, _, sent := newPasswordTestEnv()

	rec := doPasswordPost(t, pc.ForgotPassword, "/api/auth/forgot-password", map[string]string{"email": "ghost@x.com"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, *sent)
}

func TestForgotPasswordMissingEmail(t *testing.T) {
	pc, _, _ := newPasswordTestEnv()

	rec := doPasswordPost(t, pc.ForgotPassword, "/api/auth/forgot-password", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email is required")
}

func TestResetPasswordMissingFields(t *testing.T) {
	pc, _, _ := newPasswordTestEnv()

	rec := doPasswordPost(t, pc.ResetPassword, "/api/auth/reset-password", map[string]string{"token": "valid-token"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "required")
}

func TestResetPasswordWithValidToken(t *testing.T) {
	pc, users, _ := newPasswordTestEnv()
	alice := users.add(&models.User{
		Username:            "alice",
		Email:               "a@x.com",
		Password:            "old-hash",
		ResetPasswordToken:  "valid-token",
		ResetTokenExpiresAt: time.Now().Add(10 * time.Minute),
	})

	rec := doPasswordPost(t, pc.ResetPassword, "/api/auth/reset-password", map[string]string{
		"token":       "valid-token",
		"newPassword": "NewPassword1",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, utils.CheckPassword(alice.Password, "NewPassword1"))
	assert.Empty(t, alice.ResetPasswordToken)
}

func TestResetPasswordWithUnknownToken(t *testing.T) {
	pc, _, _ := newPasswordTestEnv()

	rec := doPasswordPost(t, pc.ResetPassword, "/api/auth/reset-password", map[string]string{
		"token":       "bogus",
		"newPassword": "NewPassword1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid or expired token")
}

func TestResetPasswordWithExpiredToken(t *testing.T) {
	pc, users, _ := newPasswordTestEnv()
	alice := users.add(&models.User{
		Username:            "alice",
		Email:               "a@x.com",
		Password:            "old-hash",
		ResetPasswordToken:  "stale-token",
		ResetTokenExpiresAt: time.Now().Add(-time.Minute),
	})

	rec := doPasswordPost(t, pc.ResetPassword, "/api/auth/reset-password", map[string]string{
		"token":       "stale-token",
		"newPassword": "NewPassword1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "old-hash", alice.Password)
}

func TestResetPasswordWeakPassword(t *testing.T) {
	pc, users, _ := newPasswordTestEnv()
	users.add(&models.User{
		Username:            "alice",
		Email:               "a@x.com",
		ResetPasswordToken:  "valid-token",
		ResetTokenExpiresAt: time.Now().Add(10 * time.Minute),
	})

	rec := doPasswordPost(t, pc.ResetPassword, "/api/auth/reset-password", map[string]string{
		"token":       "valid-token",
		"newPassword": "weak",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
