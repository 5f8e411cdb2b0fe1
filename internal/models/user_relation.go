package models

import "time"

// FriendshipStatus defines the state of a relationship between two users.
type FriendshipStatus string

const (
	// StatusPending means a friend request has been sent but not yet answered.
	StatusPending FriendshipStatus = "pending"

	// StatusAccepted means the request was accepted and the users are friends.
	StatusAccepted FriendshipStatus = "accepted"
)

// UserRelation is a friend request from Requester to Target. At most one
// record exists per unordered pair of users; the friendship service checks
// both directions before inserting.
type UserRelation struct {
	ID          uint             `gorm:"primaryKey"`
	RequesterID uint             `gorm:"not null;uniqueIndex:idx_relation_pair"`
	TargetID    uint             `gorm:"not null;uniqueIndex:idx_relation_pair;index"`
	Status      FriendshipStatus `gorm:"type:varchar(20);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Requester User `gorm:"foreignKey:RequesterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Target    User `gorm:"foreignKey:TargetID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Other returns the user on the other side of the relation from userID.
func (r UserRelation) Other(userID uint) uint {
	if r.RequesterID == userID {
		return r.TargetID
	}
	return r.RequesterID
}
