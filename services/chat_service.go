package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"avara_app/models"
)

// ReplyGenerator produces the avatar's reply to a user message. The actual
// model inference runs on the backend; this is its call contract.
type ReplyGenerator interface {
	Reply(ctx context.Context, avatarID, userText string) (string, error)
}

// replyBudget bounds how long SendMessage waits for the avatar's reply.
const replyBudget = 20 * time.Second

// ChatService wraps the chat tables and the avatar reply backend.
type ChatService struct {
	Dynamo  *DynamoService
	Auth    *AuthService
	Replies ReplyGenerator
	Logger  *zap.SugaredLogger
}

func NewChatService(dynamo *DynamoService, auth *AuthService, replies ReplyGenerator, logger *zap.Logger) *ChatService {
	return &ChatService{Dynamo: dynamo, Auth: auth, Replies: replies, Logger: logger.Sugar()}
}

// GetOrCreateSession returns the user's session with the given avatar,
// creating it on first contact.
func (s *ChatService) GetOrCreateSession(ctx context.Context, avatarID string) (*models.ChatSession, error) {
	userID := s.Auth.CurrentUserID()
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: models.UserKeyPrefix + userID},
		"SK": &types.AttributeValueMemberS{Value: models.AvatarKeyPrefix + avatarID},
	}
	item, err := s.Dynamo.GetItem(ctx, models.ChatSessionsTable, key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	if item != nil {
		var session models.ChatSession
		if err := attributevalue.UnmarshalMap(item, &session); err != nil {
			return nil, fmt.Errorf("failed to parse session: %w", err)
		}
		return &session, nil
	}

	session := models.ChatSession{
		ID:        uuid.New().String(),
		PK:        models.UserKeyPrefix + userID,
		SK:        models.AvatarKeyPrefix + avatarID,
		UserID:    userID,
		AvatarID:  avatarID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Dynamo.PutItem(ctx, models.ChatSessionsTable, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.Logger.Infow("chat session created", "avatarId", avatarID, "sessionId", session.ID)
	return &session, nil
}

// GetMessages fetches up to limit messages of a session, oldest first.
func (s *ChatService) GetMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	keyCondition := "sessionId = :sessionId"
	expressionValues := map[string]types.AttributeValue{
		":sessionId": &types.AttributeValueMemberS{Value: sessionID},
	}

	// Newest first so the limit keeps the tail of the conversation, then
	// re-sorted ascending for rendering.
	items, err := s.Dynamo.QueryItemsWithOptions(ctx, models.ChatMessagesTable, keyCondition, expressionValues, nil, int32(limit), true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []models.ChatMessage
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

// SendMessage stores the user's message, asks the avatar backend for a reply,
// stores that too and returns it.
func (s *ChatService) SendMessage(ctx context.Context, avatarID, text string) (*models.ChatMessage, error) {
	session, err := s.GetOrCreateSession(ctx, avatarID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	userMessage := models.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		Text:      text,
		IsMe:      true,
		CreatedAt: now,
	}
	if err := s.Dynamo.PutItem(ctx, models.ChatMessagesTable, userMessage); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	replyCtx, cancel := context.WithTimeout(ctx, replyBudget)
	defer cancel()
	replyText, err := s.Replies.Reply(replyCtx, avatarID, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}

	reply := models.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		Text:      replyText,
		IsMe:      false,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Dynamo.PutItem(ctx, models.ChatMessagesTable, reply); err != nil {
		return nil, fmt.Errorf("failed to store reply: %w", err)
	}

	if err := s.touchSession(ctx, session, reply.CreatedAt); err != nil {
		s.Logger.Warnw("failed to update session timestamp", "sessionId", session.ID, "error", err)
	}
	return &reply, nil
}

func (s *ChatService) touchSession(ctx context.Context, session *models.ChatSession, at time.Time) error {
	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: session.PK},
		"SK": &types.AttributeValueMemberS{Value: session.SK},
	}
	updateExpression := "SET lastMessageAt = :at"
	expressionValues := map[string]types.AttributeValue{
		":at": &types.AttributeValueMemberS{Value: at.Format(time.RFC3339)},
	}
	_, err := s.Dynamo.UpdateItem(ctx, models.ChatSessionsTable, updateExpression, key, expressionValues, nil)
	return err
}
