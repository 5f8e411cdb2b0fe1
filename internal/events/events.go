// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	TypeFriendRequested = "friend.requested"
	TypeFriendAccepted  = "friend.accepted"
	TypeFriendDeclined  = "friend.declined"
	TypeFriendCancelled = "friend.cancelled"
	TypeFriendRemoved   = "friend.removed"
	TypeLevelUp         = "level.up"
	TypeRewardSelected  = "reward.selected"
	TypeGameReserved    = "game.reserved"
	TypeGameCancelled   = "game.reservation_cancelled"
	TypeMessageSent     = "message.sent"
)

// Event is a domain fact about a user.
type Event struct {
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New stamps an event with the current time.
func New(eventType string, userID uint, payload any) Event {
	return Event{Type: eventType, UserID: userID, Payload: payload, OccurredAt: time.Now().UTC()}
}

// Publisher delivers events. Delivery failures are reported to the caller,
// who decides whether they matter.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
