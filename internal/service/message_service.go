package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/freeeve/hexciv/internal/model"
	"github.com/freeeve/hexciv/internal/repository"
)

// MaxMessageLength bounds the content of one chat message, in runes.
const MaxMessageLength = 1000

// MessageService handles session chat.
type MessageService struct {
	messageRepo repository.MessageRepository
	sessions    repository.SessionRepository
	broadcaster Broadcaster
}

// NewMessageService creates a MessageService.
func NewMessageService(messageRepo repository.MessageRepository, sessions repository.SessionRepository, broadcaster Broadcaster) *MessageService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &MessageService{messageRepo: messageRepo, sessions: sessions, broadcaster: broadcaster}
}

// SendMessage stores a chat message and broadcasts it to the session.
func (s *MessageService) SendMessage(ctx context.Context, sessionID, playerID, content string) (*model.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}
	sess, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	msg, err := s.messageRepo.Create(ctx, sessionID, playerID, content)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastSessionEvent(sessionID, EventChatMessage, msg)
	return msg, nil
}

// ListMessages returns the latest messages of a session.
func (s *MessageService) ListMessages(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	return s.messageRepo.ListBySession(ctx, sessionID, limit)
}
