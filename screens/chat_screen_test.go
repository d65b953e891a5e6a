package screens

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"avara_app/models"
)

type fakeChatBackend struct {
	mu         sync.Mutex
	session    models.ChatSession
	sessionErr error
	history    []models.ChatMessage
	historyErr error

	sendErr     error
	sendRelease chan struct{}
	replyText   string
}

func (f *fakeChatBackend) GetOrCreateSession(ctx context.Context, avatarID string) (*models.ChatSession, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	session := f.session
	return &session, nil
}

func (f *fakeChatBackend) GetMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	out := make([]models.ChatMessage, len(f.history))
	copy(out, f.history)
	return out, nil
}

func (f *fakeChatBackend) SendMessage(ctx context.Context, avatarID, text string) (*models.ChatMessage, error) {
	if f.sendRelease != nil {
		<-f.sendRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &models.ChatMessage{
		ID:        "reply-" + text,
		SessionID: f.session.ID,
		Text:      f.replyText,
		IsMe:      false,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (f *fakeChatBackend) setSendErr(err error) {
	f.mu.Lock()
	f.sendErr = err
	f.mu.Unlock()
}

func newChatFixture() (*ChatScreen, *fakeChatBackend) {
	backend := &fakeChatBackend{
		session:   models.ChatSession{ID: "s1", AvatarID: "a1"},
		replyText: "hey!",
	}
	return NewChatScreen(backend, zap.NewNop()), backend
}

func TestChatLoad(t *testing.T) {
	screen, backend := newChatFixture()
	backend.history = []models.ChatMessage{
		{ID: "m1", SessionID: "s1", Text: "hi", IsMe: true, CreatedAt: time.Now().Add(-time.Hour)},
		{ID: "m2", SessionID: "s1", Text: "hello", IsMe: false, CreatedAt: time.Now()},
	}

	screen.Load(context.Background(), "a1")

	assert.Equal(t, PhaseReady, screen.Phase())
	require.Len(t, screen.Messages(), 2)
	assert.Equal(t, "m1", screen.Messages()[0].ID)
}

func TestChatLoadSessionError(t *testing.T) {
	screen, backend := newChatFixture()
	backend.sessionErr = errors.New("backend down")

	screen.Load(context.Background(), "a1")

	assert.Equal(t, PhaseError, screen.Phase())
	assert.Equal(t, "Couldn't open the conversation", screen.ErrMessage())

	// Retry re-runs the load once the backend recovers.
	backend.sessionErr = nil
	screen.Retry()
	assert.Equal(t, PhaseReady, screen.Phase())
}

func TestChatSendOptimisticThenReply(t *testing.T) {
	screen, backend := newChatFixture()
	backend.sendRelease = make(chan struct{})
	screen.Load(context.Background(), "a1")

	screen.Send(context.Background(), "hi there")

	// The user's message renders before the backend confirms.
	messages := screen.Messages()
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsMe)
	assert.Equal(t, "hi there", messages[0].Text)

	close(backend.sendRelease)
	require.Eventually(t, func() bool {
		return len(screen.Messages()) == 2
	}, time.Second, 5*time.Millisecond)

	messages = screen.Messages()
	assert.False(t, messages[1].IsMe)
	assert.Equal(t, "hey!", messages[1].Text)
}

func TestChatSendFailureRemovesMessage(t *testing.T) {
	screen, backend := newChatFixture()
	screen.Load(context.Background(), "a1")
	backend.setSendErr(errors.New("offline"))

	screen.Send(context.Background(), "hi there")

	require.Eventually(t, func() bool {
		return screen.Notice() != ""
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "Message not sent", screen.Notice())
	assert.Empty(t, screen.Messages(), "the optimistic message is removed on failure")

	// Retrying the notice resends the same text.
	backend.setSendErr(nil)
	screen.RetryNotice()
	require.Eventually(t, func() bool {
		return len(screen.Messages()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "hi there", screen.Messages()[0].Text)
}

func TestChatHandleEvent(t *testing.T) {
	screen, _ := newChatFixture()
	screen.Load(context.Background(), "a1")

	incoming := models.ChatMessage{ID: "push-1", SessionID: "s1", Text: "surprise", CreatedAt: time.Now()}
	screen.HandleEvent(models.ChatEvent{Type: models.EventTypeMessage, SessionID: "s1", Message: &incoming})
	require.Len(t, screen.Messages(), 1)

	// Duplicates and foreign sessions are ignored.
	screen.HandleEvent(models.ChatEvent{Type: models.EventTypeMessage, SessionID: "s1", Message: &incoming})
	other := models.ChatMessage{ID: "push-2", SessionID: "s2", Text: "wrong room", CreatedAt: time.Now()}
	screen.HandleEvent(models.ChatEvent{Type: models.EventTypeMessage, SessionID: "s2", Message: &other})
	typing := models.ChatEvent{Type: models.EventTypeTyping, SessionID: "s1"}
	screen.HandleEvent(typing)

	assert.Len(t, screen.Messages(), 1)
}

func TestChatRows(t *testing.T) {
	screen, backend := newChatFixture()
	base := time.Date(2026, 8, 6, 10, 0, 0, 0, time.UTC)
	backend.history = []models.ChatMessage{
		{ID: "m1", SessionID: "s1", IsMe: true, CreatedAt: base},
		{ID: "m2", SessionID: "s1", IsMe: true, CreatedAt: base.Add(time.Minute)},
	}
	screen.Load(context.Background(), "a1")

	rows := screen.Rows()
	require.Len(t, rows, 3)
	assert.True(t, rows[0].IsSeparator)
	assert.Equal(t, models.GroupFirst, rows[1].Message.GroupPosition)
	assert.Equal(t, models.GroupLast, rows[2].Message.GroupPosition)
}
