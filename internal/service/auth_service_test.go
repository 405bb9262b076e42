package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

func newAuthService() (*AuthService, *repository.MemoryUserRepository) {
	users := repository.NewMemoryUserRepository()
	cfg := config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTLMinutes = 15
	cfg.Auth.BcryptCost = 4
	cfg.Auth.PasswordResetTTLMinutes = 30

	svc := NewAuthService(cfg, AuthDependencies{
		UserRepo:          users,
		PasswordResetRepo: repository.NewMemoryPasswordResetRepository(),
	})
	return svc, users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	user, token, exp, err := svc.Register(ctx, "Carla Doe", "Carla@Example.com", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "carla@example.com", user.Email)
	assert.Equal(t, domain.RoleCustomer, user.Role)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	logged, token2, _, err := svc.Login(ctx, "carla@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token2)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "", "a@example.com", "pw")
	assert.True(t, apperrors.IsValidation(err))
	_, _, _, err = svc.Register(ctx, "A", "", "pw")
	assert.True(t, apperrors.IsValidation(err))
	_, _, _, err = svc.Register(ctx, "A", "a@example.com", "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "Carla", "carla@example.com", "pw1")
	require.NoError(t, err)
	_, _, _, err = svc.Register(ctx, "Imposter", "carla@example.com", "pw2")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "Carla", "carla@example.com", "hunter2")
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "carla@example.com", "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, _, _, err = svc.Login(ctx, "nobody@example.com", "hunter2")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	user, _, _, err := svc.Register(ctx, "Carla", "carla@example.com", "hunter2")
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, user, ProfileUpdateInput{Name: "Carla D.", Password: "newpw"})
	require.NoError(t, err)
	assert.Equal(t, "Carla D.", updated.Name)
	assert.Equal(t, "carla@example.com", updated.Email)

	_, _, _, err = svc.Login(ctx, "carla@example.com", "newpw")
	require.NoError(t, err)
	_, _, _, err = svc.Login(ctx, "carla@example.com", "hunter2")
	assert.Error(t, err)
}

func TestUpdateProfileRejectsTakenEmail(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "Carla", "carla@example.com", "pw")
	require.NoError(t, err)
	other, _, _, err := svc.Register(ctx, "Chris", "chris@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, other, ProfileUpdateInput{Email: "carla@example.com"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "Carla", "carla@example.com", "oldpw")
	require.NoError(t, err)

	token, err := svc.RequestPasswordReset(ctx, "carla@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)

	require.NoError(t, svc.ConfirmPasswordReset(ctx, token.Token, "freshpw"))

	_, _, _, err = svc.Login(ctx, "carla@example.com", "freshpw")
	require.NoError(t, err)

	// Single use.
	err = svc.ConfirmPasswordReset(ctx, token.Token, "anotherpw")
	assert.True(t, apperrors.IsValidation(err))
}

func TestPasswordResetUnknownAccount(t *testing.T) {
	svc, _ := newAuthService()
	ctx := context.Background()

	_, err := svc.RequestPasswordReset(ctx, "ghost@example.com")
	assert.True(t, apperrors.IsNotFound(err))
	err = svc.ConfirmPasswordReset(ctx, "no-such-token", "pw")
	assert.True(t, apperrors.IsNotFound(err))
}
