package services

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"avara_app/models"
)

// AuthService restores and holds the signed-in user's session. Token issuance
// and refresh live on the hosted auth backend; this wrapper only restores a
// stored session and answers identity questions.
type AuthService struct {
	Dynamo *DynamoService
	Logger *zap.Logger

	mu        sync.RWMutex
	userID    string
	token     string
	onboarded bool
	ready     bool
}

func NewAuthService(dynamo *DynamoService, logger *zap.Logger) *AuthService {
	return &AuthService{Dynamo: dynamo, Logger: logger}
}

// Initialize restores the stored session and loads the user's profile row.
// Failure here is the one fatal condition in the app: the caller routes to
// the restart-error screen.
func (a *AuthService) Initialize(ctx context.Context) error {
	userID := os.Getenv("AVARA_USER_ID")
	token := os.Getenv("AVARA_SESSION_TOKEN")
	if userID == "" || token == "" {
		return fmt.Errorf("restore session: %w", ErrNotAuthenticated)
	}

	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
	item, err := a.Dynamo.GetItem(ctx, models.UserProfilesTable, key)
	if err != nil {
		return fmt.Errorf("load profile for %s: %w", userID, err)
	}
	if item == nil {
		return fmt.Errorf("load profile for %s: %w", userID, ErrSessionExpired)
	}

	var profile models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return fmt.Errorf("parse profile: %w", err)
	}

	a.mu.Lock()
	a.userID = userID
	a.token = token
	a.onboarded = profile.OnboardingCompleted
	a.ready = true
	a.mu.Unlock()

	a.Logger.Info("session restored", zap.String("userId", userID))
	return nil
}

func (a *AuthService) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ready
}

func (a *AuthService) CurrentUserID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.userID
}

// HasCompletedOnboarding answers from the session cache; it re-reads the
// profile row only when the session was never initialized.
func (a *AuthService) HasCompletedOnboarding(ctx context.Context) (bool, error) {
	a.mu.RLock()
	ready, onboarded := a.ready, a.onboarded
	a.mu.RUnlock()
	if !ready {
		return false, ErrNotAuthenticated
	}
	return onboarded, nil
}
