// Package service holds the application operations. Each service is built
// from the stores and collaborators it needs; nothing here reaches for
// package-level state.
package service

import (
	"context"
	"time"

	"tabletop/backend/internal/hub"
	"tabletop/backend/internal/models"
)

// Page selects a window of a listing. The zero value means the first page
// of DefaultPageSize items.
type Page struct {
	Number int
	Size   int
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Normalize clamps the page into the accepted range.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of items before the page.
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.Size
}

// Direction filters relations relative to a user.
type Direction string

const (
	DirectionAny      Direction = ""
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// UserStore persists profiles. Lookups return apperr.ErrNotFound when no
// record matches and apperr.ErrConflict on uniqueness violations.
type UserStore interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id uint, fields map[string]any) error
	UpdateUnlocks(ctx context.Context, id uint, unlocks []byte) error
	Search(ctx context.Context, query string, excludeID uint, page Page) ([]models.User, int64, error)
}

// FriendStore persists friend relations.
type FriendStore interface {
	// FindRelationship returns the record sent by requesterID to targetID,
	// or nil when there is none.
	FindRelationship(ctx context.Context, requesterID, targetID uint) (*models.UserRelation, error)
	InsertRelationship(ctx context.Context, rel *models.UserRelation) error
	UpdateStatus(ctx context.Context, id uint, status models.FriendshipStatus) error
	DeleteRelationship(ctx context.Context, id uint) error
	// ListRelations returns relations touching userID with Requester and
	// Target loaded.
	ListRelations(ctx context.Context, userID uint, status models.FriendshipStatus, dir Direction) ([]models.UserRelation, error)
	CountRelations(ctx context.Context, userID uint, status models.FriendshipStatus, dir Direction) (int64, error)
}

// AchievementStore persists the achievement catalog and user progress.
type AchievementStore interface {
	// ListUserAchievements returns the whole catalog joined with the
	// user's progress; entries the user never touched are locked at 0.
	ListUserAchievements(ctx context.Context, userID uint) ([]models.AchievementStatus, error)
	ListAchievements(ctx context.Context) ([]models.Achievement, error)
	GetAchievement(ctx context.Context, id uint) (*models.Achievement, error)
	CreateAchievement(ctx context.Context, a *models.Achievement) error
	UpdateAchievement(ctx context.Context, a *models.Achievement) error
	DeleteAchievement(ctx context.Context, id uint) error
	GetProgress(ctx context.Context, userID, achievementID uint) (*models.UserAchievement, error)
	SetProgress(ctx context.Context, progress *models.UserAchievement) error
}

// GameFilter narrows the upcoming games listing.
type GameFilter struct {
	Category string
	Query    string
	After    time.Time
	Page     Page
}

// GameStore persists games and reservations. Reserve and CancelReservation
// adjust SpotsAvailable atomically with the reservation row.
type GameStore interface {
	CreateGame(ctx context.Context, game *models.Game) error
	GetGame(ctx context.Context, id uint) (*models.Game, error)
	// UpdateGame loads the game under a lock, lets apply change it and
	// writes it back. An error from apply aborts the write and is returned
	// unchanged.
	UpdateGame(ctx context.Context, id uint, apply func(*models.Game) error) (*models.Game, error)
	SetGameImage(ctx context.Context, id uint, url string) error
	DeleteGame(ctx context.Context, id uint) error
	ListUpcoming(ctx context.Context, filter GameFilter) ([]models.Game, int64, error)
	ListHostedUpcoming(ctx context.Context, hostID uint, after time.Time, limit int) ([]models.Game, error)
	Reserve(ctx context.Context, gameID, userID uint) (*models.Reservation, error)
	CancelReservation(ctx context.Context, gameID, userID uint) error
	ListAttendees(ctx context.Context, gameID uint) ([]models.Reservation, error)
}

// ConversationSummary is the latest message exchanged with one partner.
type ConversationSummary struct {
	PartnerID   uint
	LastMessage models.Message
	Unread      int64
}

// MessageStore persists direct messages.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	// Conversation returns messages between a and b oldest first.
	Conversation(ctx context.Context, a, b uint, page Page) ([]models.Message, error)
	MarkRead(ctx context.Context, receiverID, senderID uint) (int64, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	Conversations(ctx context.Context, userID uint) ([]ConversationSummary, error)
}

// Notifier pushes realtime events to a user's open streams.
type Notifier interface {
	Publish(userID uint, event hub.Event)
}
