package screens

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"avara_app/models"
	"avara_app/services"
)

// ChatBackend is the chat service contract the chat screen consumes.
type ChatBackend interface {
	GetOrCreateSession(ctx context.Context, avatarID string) (*models.ChatSession, error)
	GetMessages(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error)
	SendMessage(ctx context.Context, avatarID, text string) (*models.ChatMessage, error)
}

var _ ChatBackend = (*services.ChatService)(nil)

// historyLimit is how much conversation history loads on entry.
const historyLimit = 50

// ChatScreen drives one conversation with an avatar: history load, optimistic
// sends with revert-on-failure, realtime push merge and the per-render
// grouping pass.
type ChatScreen struct {
	ScreenController

	backend  ChatBackend
	avatarID string
	session  *models.ChatSession
	messages []models.ChatMessage
}

func NewChatScreen(backend ChatBackend, logger *zap.Logger) *ChatScreen {
	s := &ChatScreen{backend: backend}
	s.initScreen(logger)
	return s
}

// Load opens (or creates) the session with the avatar and fetches history.
func (s *ChatScreen) Load(ctx context.Context, avatarID string) {
	s.setLoading()

	session, err := s.backend.GetOrCreateSession(ctx, avatarID)
	if !s.alive() {
		return
	}
	if err != nil {
		s.setError("Couldn't open the conversation", func() { s.Load(ctx, avatarID) })
		return
	}

	messages, err := s.backend.GetMessages(ctx, session.ID, historyLimit)
	if !s.alive() {
		return
	}
	if err != nil {
		s.setError("Couldn't load messages", func() { s.Load(ctx, avatarID) })
		return
	}

	s.mu.Lock()
	s.avatarID = avatarID
	s.session = session
	s.messages = messages
	s.mu.Unlock()
	s.setReady()
}

// Send appends the user's message optimistically and confirms in the
// background; on failure the message is removed and a retry notice shown.
func (s *ChatScreen) Send(ctx context.Context, text string) {
	if text == "" {
		return
	}

	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return
	}
	local := models.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: s.session.ID,
		Text:      text,
		IsMe:      true,
		CreatedAt: time.Now().UTC(),
	}
	s.messages = append(s.messages, local)
	avatarID := s.avatarID
	s.mu.Unlock()
	s.notify()

	go func() {
		reply, err := s.backend.SendMessage(ctx, avatarID, text)
		if !s.alive() {
			return
		}
		if err != nil {
			s.removeMessage(local.ID)
			s.showNotice("Message not sent", func() { s.Send(ctx, text) })
			return
		}
		s.appendIfNew(*reply)
	}()
}

// HandleEvent merges a realtime push event into the conversation. Events for
// other sessions and duplicates of already-known messages are ignored.
func (s *ChatScreen) HandleEvent(event models.ChatEvent) {
	if event.Type != models.EventTypeMessage || event.Message == nil {
		return
	}

	s.mu.Lock()
	session := s.session
	s.mu.Unlock()
	if session == nil || event.Message.SessionID != session.ID {
		return
	}
	s.appendIfNew(*event.Message)
}

// Rows returns the renderable conversation: grouped messages with day
// separators, recomputed from the raw list on every call.
func (s *ChatScreen) Rows() []ChatRow {
	s.mu.Lock()
	messages := make([]models.ChatMessage, len(s.messages))
	copy(messages, s.messages)
	s.mu.Unlock()
	return BuildRows(messages)
}

// Messages returns a snapshot of the raw message list.
func (s *ChatScreen) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *ChatScreen) appendIfNew(message models.ChatMessage) {
	s.mu.Lock()
	for _, m := range s.messages {
		if m.ID == message.ID {
			s.mu.Unlock()
			return
		}
	}
	s.messages = append(s.messages, message)
	s.mu.Unlock()
	s.notify()
}

func (s *ChatScreen) removeMessage(id string) {
	s.mu.Lock()
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}
