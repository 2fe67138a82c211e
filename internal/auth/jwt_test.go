package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	userID := uuid.New()

	token, err := manager.GenerateToken(userID, "analyst@example.com", "analyst")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "analyst@example.com", claims.Email)
	assert.Equal(t, "analyst", claims.Role)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Hour)
	token, err := manager.GenerateToken(uuid.New(), "a@b.com", "admin")
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	manager := NewJWTManager("secret-a", time.Hour)
	token, err := manager.GenerateToken(uuid.New(), "a@b.com", "admin")
	require.NoError(t, err)

	other := NewJWTManager("secret-b", time.Hour)
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret!")
	require.NoError(t, err)
	assert.True(t, CheckPassword("Sup3rSecret!", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.True(t, ValidatePasswordStrength("Abcdef12"))
	assert.False(t, ValidatePasswordStrength("short1"))
	assert.False(t, ValidatePasswordStrength("alllowercase1"))
	assert.False(t, ValidatePasswordStrength("ALLUPPERCASE1"))
	assert.False(t, ValidatePasswordStrength("NoDigitsHere"))
}
