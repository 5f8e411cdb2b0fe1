package models

import "time"

// Message is a direct chat message between two users.
type Message struct {
	ID         uint      `gorm:"primaryKey"`
	SenderID   uint      `gorm:"not null;index:idx_message_pair"`
	ReceiverID uint      `gorm:"not null;index:idx_message_pair;index"`
	Content    string    `gorm:"type:text;not null"`
	Read       bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"index"`

	Sender   User `gorm:"foreignKey:SenderID"`
	Receiver User `gorm:"foreignKey:ReceiverID"`
}
