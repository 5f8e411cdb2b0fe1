package memory

import (
	"context"
	"slices"

	"tabletop/backend/internal/models"
	"tabletop/backend/internal/service"
)

func (s *Store) CreateMessage(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = s.id()
	msg.CreatedAt = s.now()
	stored := *msg
	stored.Sender, stored.Receiver = models.User{}, models.User{}
	s.messages = append(s.messages, stored)
	return nil
}

func (s *Store) Conversation(_ context.Context, a, b uint, page service.Page) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, compareMessages)
	return paginate(out, page), nil
}

func (s *Store) MarkRead(_ context.Context, receiverID, senderID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.messages {
		m := &s.messages[i]
		if m.ReceiverID == receiverID && m.SenderID == senderID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (s *Store) UnreadCount(_ context.Context, userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.ReceiverID == userID && !m.Read {
			n++
		}
	}
	return n, nil
}

func (s *Store) Conversations(_ context.Context, userID uint) ([]service.ConversationSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byPartner := map[uint]*service.ConversationSummary{}
	for _, m := range s.messages {
		var partner uint
		switch userID {
		case m.SenderID:
			partner = m.ReceiverID
		case m.ReceiverID:
			partner = m.SenderID
		default:
			continue
		}
		sum, ok := byPartner[partner]
		if !ok {
			sum = &service.ConversationSummary{PartnerID: partner}
			byPartner[partner] = sum
		}
		if !ok || compareMessages(m, sum.LastMessage) > 0 {
			sum.LastMessage = m
		}
		if m.ReceiverID == userID && !m.Read {
			sum.Unread++
		}
	}

	out := make([]service.ConversationSummary, 0, len(byPartner))
	for _, sum := range byPartner {
		out = append(out, *sum)
	}
	slices.SortFunc(out, func(a, b service.ConversationSummary) int {
		return compareMessages(b.LastMessage, a.LastMessage)
	})
	return out, nil
}

func compareMessages(a, b models.Message) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return int(a.ID) - int(b.ID)
}
