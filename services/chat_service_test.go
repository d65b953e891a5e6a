package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"avara_app/models"
)

type fakeReplies struct {
	text string
	err  error
}

func (f *fakeReplies) Reply(ctx context.Context, avatarID, userText string) (string, error) {
	return f.text, f.err
}

func TestGetOrCreateSessionCreatesOnFirstContact(t *testing.T) {
	var created models.ChatSession
	fake := &fakeDynamo{
		putFn: func(params *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			require.Equal(t, models.ChatSessionsTable, *params.TableName)
			require.NoError(t, attributevalue.UnmarshalMap(params.Item, &created))
			return &dynamodb.PutItemOutput{}, nil
		},
	}

	ds, auth := authedServices(t, fake)
	svc := NewChatService(ds, auth, &fakeReplies{}, zap.NewNop())

	session, err := svc.GetOrCreateSession(context.Background(), "a1")
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, session.ID, created.ID)
	assert.Equal(t, models.UserKeyPrefix+"u1", created.PK)
	assert.Equal(t, models.AvatarKeyPrefix+"a1", created.SK)
	assert.Equal(t, "a1", created.AvatarID)
}

func TestGetOrCreateSessionReturnsExisting(t *testing.T) {
	existing, err := attributevalue.MarshalMap(models.ChatSession{
		ID:       "s1",
		PK:       models.UserKeyPrefix + "u1",
		SK:       models.AvatarKeyPrefix + "a1",
		UserID:   "u1",
		AvatarID: "a1",
	})
	require.NoError(t, err)

	var puts int
	fake := &fakeDynamo{
		putFn: func(params *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			puts++
			return &dynamodb.PutItemOutput{}, nil
		},
	}
	fake.getFn = func(params *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
		if *params.TableName == models.ChatSessionsTable {
			return &dynamodb.GetItemOutput{Item: existing}, nil
		}
		return &dynamodb.GetItemOutput{}, nil
	}

	ds, auth := authedServices(t, fake)
	svc := NewChatService(ds, auth, &fakeReplies{}, zap.NewNop())

	session, err := svc.GetOrCreateSession(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "s1", session.ID)
	assert.Zero(t, puts)
}

func TestGetMessagesSortsAscending(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	newest, err := attributevalue.MarshalMap(models.ChatMessage{ID: "m2", SessionID: "s1", CreatedAt: now})
	require.NoError(t, err)
	oldest, err := attributevalue.MarshalMap(models.ChatMessage{ID: "m1", SessionID: "s1", CreatedAt: now.Add(-time.Hour)})
	require.NoError(t, err)

	fake := &fakeDynamo{
		queryFn: func(params *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
			require.NotNil(t, params.ScanIndexForward)
			assert.False(t, *params.ScanIndexForward, "the limit must keep the newest messages")
			return &dynamodb.QueryOutput{
				Items: []map[string]types.AttributeValue{newest, oldest},
			}, nil
		},
	}

	ds, auth := authedServices(t, fake)
	svc := NewChatService(ds, auth, &fakeReplies{}, zap.NewNop())

	messages, err := svc.GetMessages(context.Background(), "s1", 50)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "m2", messages[1].ID)
}

func TestSendMessageStoresBothSides(t *testing.T) {
	var stored []models.ChatMessage
	var touched bool
	fake := &fakeDynamo{
		putFn: func(params *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			if *params.TableName == models.ChatMessagesTable {
				var m models.ChatMessage
				require.NoError(t, attributevalue.UnmarshalMap(params.Item, &m))
				stored = append(stored, m)
			}
			return &dynamodb.PutItemOutput{}, nil
		},
		updateFn: func(params *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
			if *params.TableName == models.ChatSessionsTable {
				touched = true
			}
			return &dynamodb.UpdateItemOutput{}, nil
		},
	}

	ds, auth := authedServices(t, fake)
	svc := NewChatService(ds, auth, &fakeReplies{text: "nice to meet you"}, zap.NewNop())

	reply, err := svc.SendMessage(context.Background(), "a1", "hello")
	require.NoError(t, err)

	assert.False(t, reply.IsMe)
	assert.Equal(t, "nice to meet you", reply.Text)

	require.Len(t, stored, 2)
	assert.True(t, stored[0].IsMe)
	assert.Equal(t, "hello", stored[0].Text)
	assert.False(t, stored[1].IsMe)
	assert.Equal(t, stored[0].SessionID, stored[1].SessionID)
	assert.True(t, touched, "lastMessageAt is bumped after the reply")
}

func TestSendMessageReplyFailure(t *testing.T) {
	var stored int
	fake := &fakeDynamo{
		putFn: func(params *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
			if *params.TableName == models.ChatMessagesTable {
				stored++
			}
			return &dynamodb.PutItemOutput{}, nil
		},
	}

	ds, auth := authedServices(t, fake)
	svc := NewChatService(ds, auth, &fakeReplies{err: errors.New("engine overloaded")}, zap.NewNop())

	_, err := svc.SendMessage(context.Background(), "a1", "hello")
	require.Error(t, err)
	assert.Equal(t, 1, stored, "only the user's message was persisted")
}

func TestChatRequiresAuth(t *testing.T) {
	ds := &DynamoService{Client: &fakeDynamo{}}
	auth := NewAuthService(ds, zap.NewNop())
	svc := NewChatService(ds, auth, &fakeReplies{}, zap.NewNop())

	_, err := svc.GetOrCreateSession(context.Background(), "a1")
	require.ErrorIs(t, err, ErrNotAuthenticated)
}
