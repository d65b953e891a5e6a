package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAuthInitialize(t *testing.T) {
	_, auth := authedServices(t, &fakeDynamo{})

	assert.True(t, auth.IsAuthenticated())
	assert.Equal(t, "u1", auth.CurrentUserID())

	onboarded, err := auth.HasCompletedOnboarding(context.Background())
	require.NoError(t, err)
	assert.True(t, onboarded)
}

func TestAuthInitializeWithoutStoredSession(t *testing.T) {
	t.Setenv("AVARA_USER_ID", "")
	t.Setenv("AVARA_SESSION_TOKEN", "")

	auth := NewAuthService(&DynamoService{Client: &fakeDynamo{}}, zap.NewNop())
	err := auth.Initialize(context.Background())

	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.False(t, auth.IsAuthenticated())
}

func TestAuthInitializeExpiredSession(t *testing.T) {
	t.Setenv("AVARA_USER_ID", "u-gone")
	t.Setenv("AVARA_SESSION_TOKEN", "token")

	// The profile row no longer exists.
	auth := NewAuthService(&DynamoService{Client: &fakeDynamo{}}, zap.NewNop())
	err := auth.Initialize(context.Background())

	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestOnboardingRequiresSession(t *testing.T) {
	auth := NewAuthService(&DynamoService{Client: &fakeDynamo{}}, zap.NewNop())

	_, err := auth.HasCompletedOnboarding(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}
