package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	user := &domain.User{ID: "user-1", Role: domain.RoleAgent}

	token, exp, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, domain.RoleAgent, claims.Role)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 15).GenerateToken(&domain.User{ID: "u"})
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 15).ParseToken(token)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("secret", 15)
	_, err := tm.ParseToken("not.a.jwt")
	assert.Error(t, err)
	_, err = tm.ParseToken("")
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.NoError(t, ComparePassword(hash, "hunter2"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}

func TestHashPasswordClampsInvalidCost(t *testing.T) {
	hash, err := HashPassword("hunter2", 0)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "hunter2"))
}
