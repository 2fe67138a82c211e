package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService() *AuthService {
	return NewAuthService(NewMemoryAccountStore(), NewJWTManager("test-secret", time.Hour))
}

func TestRegisterIssuesTokenAndDefaultsRole(t *testing.T) {
	svc := newTestAuthService()

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "analyst@example.com",
		Password: "Sup3rSecret!",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "analyst", resp.Account.Role)
	assert.Equal(t, "analyst@example.com", resp.Account.Email)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc := newTestAuthService()

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "analyst@example.com",
		Password: "short",
	})

	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "Sup3rSecret!"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "Sup3rSecret!"})
	assert.ErrorIs(t, err, ErrAccountAlreadyExists)
}

func TestLoginSucceedsWithCorrectCredentials(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "Sup3rSecret!", Role: "admin"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "Sup3rSecret!"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin", resp.Account.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "a@b.com", Password: "Sup3rSecret!"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc := newTestAuthService()

	_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "Sup3rSecret!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
