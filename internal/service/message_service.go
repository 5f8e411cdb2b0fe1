package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/events"
	"tabletop/backend/internal/hub"
	"tabletop/backend/internal/models"
)

// MaxMessageLength is counted in characters, not bytes.
const MaxMessageLength = 2000

// MessagePayload is the realtime form of a message.
type MessagePayload struct {
	ID         uint      `json:"id"`
	SenderID   uint      `json:"sender_id"`
	ReceiverID uint      `json:"receiver_id"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewMessagePayload(m *models.Message) MessagePayload {
	return MessagePayload{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		Read:       m.Read,
		CreatedAt:  m.CreatedAt,
	}
}

type MessageService struct {
	messages  MessageStore
	users     UserStore
	publisher events.Publisher
	notifier  Notifier
	log       *slog.Logger
}

func NewMessageService(messages MessageStore, users UserStore, publisher events.Publisher, notifier Notifier, log *slog.Logger) *MessageService {
	return &MessageService{messages: messages, users: users, publisher: publisher, notifier: notifier, log: log}
}

// Send stores a message and pushes it to the receiver's open streams.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID uint, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return nil, apperr.Invalid("content", "must not be empty")
	case utf8.RuneCountInString(content) > MaxMessageLength:
		return nil, apperr.Invalid("content", "must be at most %d characters", MaxMessageLength)
	case senderID == receiverID:
		return nil, apperr.Invalid("receiver", "cannot message yourself")
	}
	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		return nil, err
	}

	msg := &models.Message{SenderID: senderID, ReceiverID: receiverID, Content: content}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.notifier.Publish(receiverID, hub.Event{Type: events.TypeMessageSent, Payload: NewMessagePayload(msg)})
	meta := map[string]uint{"message_id": msg.ID, "receiver_id": receiverID}
	if err := s.publisher.Publish(ctx, events.New(events.TypeMessageSent, senderID, meta)); err != nil {
		s.log.Warn("publish message event", "user_id", senderID, "err", err)
	}
	return msg, nil
}

// Conversation returns messages between userID and partnerID oldest first.
func (s *MessageService) Conversation(ctx context.Context, userID, partnerID uint, page Page) ([]models.Message, error) {
	return s.messages.Conversation(ctx, userID, partnerID, page.Normalize())
}

// MarkRead marks everything partnerID sent to userID as read.
func (s *MessageService) MarkRead(ctx context.Context, userID, partnerID uint) (int64, error) {
	return s.messages.MarkRead(ctx, userID, partnerID)
}

func (s *MessageService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.messages.UnreadCount(ctx, userID)
}

// Conversations lists one summary per partner, latest first.
func (s *MessageService) Conversations(ctx context.Context, userID uint) ([]ConversationSummary, error) {
	return s.messages.Conversations(ctx, userID)
}
