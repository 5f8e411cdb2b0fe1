package repository

import (
	"context"
	"database/sql"
	"slices"

	"gorm.io/gorm"

	"tabletop/backend/internal/models"
	"tabletop/backend/internal/service"
)

type Messages struct {
	db *gorm.DB
}

func (r *Messages) CreateMessage(ctx context.Context, msg *models.Message) error {
	return translate("messages.CreateMessage", r.db.WithContext(ctx).Omit("Sender", "Receiver").Create(msg).Error)
}

func (r *Messages) Conversation(ctx context.Context, a, b uint, page service.Page) ([]models.Message, error) {
	page = page.Normalize()
	out := []models.Message{}
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at, id").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&out).Error
	if err != nil {
		return nil, translate("messages.Conversation", err)
	}
	return out, nil
}

func (r *Messages) MarkRead(ctx context.Context, receiverID, senderID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND read = ?", receiverID, senderID, false).
		Update("read", true)
	if result.Error != nil {
		return 0, translate("messages.MarkRead", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *Messages) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, translate("messages.UnreadCount", err)
	}
	return count, nil
}

const latestPerPartner = `
SELECT DISTINCT ON (partner_id) m.*, CASE WHEN m.sender_id = @user THEN m.receiver_id ELSE m.sender_id END AS partner_id
FROM messages m
WHERE m.sender_id = @user OR m.receiver_id = @user
ORDER BY partner_id, m.created_at DESC, m.id DESC`

func (r *Messages) Conversations(ctx context.Context, userID uint) ([]service.ConversationSummary, error) {
	type latestRow struct {
		models.Message
		PartnerID uint
	}
	var latest []latestRow
	if err := r.db.WithContext(ctx).Raw(latestPerPartner, sql.Named("user", userID)).Scan(&latest).Error; err != nil {
		return nil, translate("messages.Conversations", err)
	}

	type unreadRow struct {
		SenderID uint
		Count    int64
	}
	var unread []unreadRow
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Select("sender_id, COUNT(*) AS count").
		Where("receiver_id = ? AND read = ?", userID, false).
		Group("sender_id").
		Scan(&unread).Error
	if err != nil {
		return nil, translate("messages.Conversations", err)
	}
	counts := make(map[uint]int64, len(unread))
	for _, u := range unread {
		counts[u.SenderID] = u.Count
	}

	out := make([]service.ConversationSummary, 0, len(latest))
	for _, row := range latest {
		out = append(out, service.ConversationSummary{
			PartnerID:   row.PartnerID,
			LastMessage: row.Message,
			Unread:      counts[row.PartnerID],
		})
	}
	slices.SortFunc(out, func(a, b service.ConversationSummary) int {
		if c := b.LastMessage.CreatedAt.Compare(a.LastMessage.CreatedAt); c != 0 {
			return c
		}
		return int(b.LastMessage.ID) - int(a.LastMessage.ID)
	})
	return out, nil
}
