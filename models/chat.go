package models

import "time"

// GroupPosition classifies a message inside a same-sender burst.
type GroupPosition string

const (
	GroupSingle GroupPosition = "single"
	GroupFirst  GroupPosition = "first"
	GroupMiddle GroupPosition = "middle"
	GroupLast   GroupPosition = "last"
)

// ChatSession is one user's conversation with one avatar.
type ChatSession struct {
	ID            string `dynamodbav:"sessionId" json:"sessionId"`
	PK            string `dynamodbav:"PK" json:"-"`
	SK            string `dynamodbav:"SK" json:"-"`
	UserID        string `dynamodbav:"userId" json:"userId"`
	AvatarID      string `dynamodbav:"avatarId" json:"avatarId"`
	CreatedAt     string `dynamodbav:"createdAt" json:"createdAt"`
	LastMessageAt string `dynamodbav:"lastMessageAt,omitempty" json:"lastMessageAt,omitempty"`
}

// ChatMessage is a single chat line. The render hints at the bottom are
// recomputed from the raw list on every pass and never persisted.
type ChatMessage struct {
	ID        string    `dynamodbav:"messageId" json:"messageId"`
	SessionID string    `dynamodbav:"sessionId" json:"sessionId"`
	Text      string    `dynamodbav:"text" json:"text"`
	IsMe      bool      `dynamodbav:"isMe" json:"isMe"`
	CreatedAt time.Time `dynamodbav:"createdAt" json:"createdAt"`

	ShowAvatar    bool          `dynamodbav:"-" json:"-"`
	ShowTime      bool          `dynamodbav:"-" json:"-"`
	GroupPosition GroupPosition `dynamodbav:"-" json:"-"`
}

// ChatEvent is the envelope pushed over the realtime channel.
type ChatEvent struct {
	Type      string       `json:"type"`
	SessionID string       `json:"sessionId,omitempty"`
	Message   *ChatMessage `json:"message,omitempty"`
}

// Realtime event types
const (
	EventTypeMessage = "message"
	EventTypeTyping  = "typing"
)

// ChatSessionsTable is the DynamoDB table name for chat sessions
const ChatSessionsTable = "ChatSessions"

// ChatMessagesTable is the DynamoDB table name for chat messages
const ChatMessagesTable = "ChatMessages"
