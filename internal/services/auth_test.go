package services

import (
	"testing"

	"github.com/huangang/modsentry/backend/internal/config"
	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	utils.SetJWTSecret("services-test-secret")
	return NewAuthService(openTestDB(t), &config.JWTConfig{ExpireHour: 2})
}

func TestEnsureDefaultAdmin(t *testing.T) {
	svc := newAuthService(t)
	ctx := ctxT(t)
	admin := config.AdminConfig{Username: "root", Password: "s3cret"}

	require.NoError(t, svc.EnsureDefaultAdmin(ctx, admin))
	require.NoError(t, svc.EnsureDefaultAdmin(ctx, config.AdminConfig{Username: "other", Password: "x"}))

	var mods []models.Moderator
	require.NoError(t, svc.db.Find(&mods).Error)
	require.Len(t, mods, 1, "the admin is only seeded into an empty table")
	assert.Equal(t, "root", mods[0].Username)
	assert.Equal(t, models.RoleAdmin, mods[0].Role)
	assert.NotEqual(t, "s3cret", mods[0].Password)
}

func TestLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := ctxT(t)
	require.NoError(t, svc.EnsureDefaultAdmin(ctx, config.AdminConfig{Username: "root", Password: "s3cret"}))

	resp, err := svc.Login(ctx, &LoginRequest{Username: "root", Password: "s3cret"}, "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotNil(t, resp.Moderator.LastLogin)

	claims, err := utils.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.Moderator.ID, claims.ModeratorID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, err = svc.Login(ctx, &LoginRequest{Username: "root", Password: "wrong"}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, &LoginRequest{Username: "ghost", Password: "s3cret"}, "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveModerator(t *testing.T) {
	svc := newAuthService(t)
	ctx := ctxT(t)
	hash, err := utils.HashPassword("pw")
	require.NoError(t, err)
	mod := &models.Moderator{Username: "gone", Password: hash, Role: models.RoleModerator, IsActive: false}
	require.NoError(t, svc.db.Create(mod).Error)

	_, err = svc.Login(ctx, &LoginRequest{Username: "gone", Password: "pw"}, "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
