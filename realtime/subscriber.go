// Package realtime maintains the push channel to the backend: a websocket
// connection delivering chat events for the signed-in user's sessions.
package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"avara_app/models"
)

// EventHandler receives every event read off the channel. It is called from
// the subscriber's read goroutine.
type EventHandler func(event models.ChatEvent)

// Subscriber dials the push endpoint and pumps events to its handler until
// closed or the connection drops.
type Subscriber struct {
	url     string
	handler EventHandler
	logger  *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}
}

func NewSubscriber(url string, handler EventHandler, logger *zap.Logger) *Subscriber {
	return &Subscriber{url: url, handler: handler, logger: logger}
}

// Connect dials the endpoint and starts the read loop. A subscriber holds at
// most one connection; Connect on a live subscriber is rejected.
func (s *Subscriber) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("subscriber already closed")
	}
	if s.conn != nil {
		s.mu.Unlock()
		return fmt.Errorf("subscriber already connected")
	}
	s.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect realtime channel: %w", err)
	}

	s.mu.Lock()
	if s.closed || s.conn != nil {
		s.mu.Unlock()
		conn.Close()
		return fmt.Errorf("subscriber already closed or connected")
	}
	s.conn = conn
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.readLoop(conn)
	s.logger.Info("realtime channel connected", zap.String("url", s.url))
	return nil
}

func (s *Subscriber) readLoop(conn *websocket.Conn) {
	defer close(s.done)
	for {
		var event models.ChatEvent
		if err := conn.ReadJSON(&event); err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				s.logger.Warn("realtime channel dropped", zap.Error(err))
			}
			return
		}
		if s.handler != nil {
			s.handler(event)
		}
	}
}

// Close tears the connection down. Redundant calls are no-ops.
func (s *Subscriber) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conn := s.conn
	done := s.done
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
		<-done
	}
}
