// Package friendship decides friend-request transitions. Decisions are made
// over relations the caller already fetched; nothing here performs I/O.
//
// Per unordered pair the states are none -> pending -> accepted, with
// pending -> none (decline or cancel) and accepted -> none (remove).
package friendship

import (
	"errors"

	"tabletop/backend/internal/models"
)

var (
	ErrSelfRelation          = errors.New("cannot befriend yourself")
	ErrAlreadyFriends        = errors.New("already friends")
	ErrRequestAlreadyPending = errors.New("friend request already pending")
	ErrNoPendingRequest      = errors.New("no pending friend request")
	ErrNotFriends            = errors.New("not friends")
)

// Pair is the lookup result for two users as seen from the current user:
// Forward is current -> other, Reverse is other -> current. Either may be nil.
type Pair struct {
	Forward *models.UserRelation
	Reverse *models.UserRelation
}

// find returns the record for the pair in either direction.
func (p Pair) find() *models.UserRelation {
	if p.Forward != nil {
		return p.Forward
	}
	return p.Reverse
}

type Action int

const (
	ActionInsert Action = iota + 1
	ActionUpdateStatus
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionInsert:
		return "insert"
	case ActionUpdateStatus:
		return "update_status"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Decision is the single store mutation an action resolves to. For inserts
// Relation is the new record; otherwise it is the existing record, with
// Status already set to the new value for status updates.
type Decision struct {
	Action   Action
	Relation models.UserRelation
}

// Request decides whether requesterID may send a request to targetID.
// pair must be looked up as (requester -> target, target -> requester).
func Request(requesterID, targetID uint, pair Pair) (Decision, error) {
	if requesterID == targetID {
		return Decision{}, ErrSelfRelation
	}
	for _, rel := range []*models.UserRelation{pair.Forward, pair.Reverse} {
		if rel != nil && rel.Status == models.StatusAccepted {
			return Decision{}, ErrAlreadyFriends
		}
	}
	if pair.find() != nil {
		return Decision{}, ErrRequestAlreadyPending
	}
	return Decision{
		Action: ActionInsert,
		Relation: models.UserRelation{
			RequesterID: requesterID,
			TargetID:    targetID,
			Status:      models.StatusPending,
		},
	}, nil
}

// Accept turns otherID's pending request to currentID into a friendship.
func Accept(currentID, otherID uint, pair Pair) (Decision, error) {
	rel, err := incomingPending(currentID, otherID, pair)
	if err != nil {
		return Decision{}, err
	}
	rel.Status = models.StatusAccepted
	return Decision{Action: ActionUpdateStatus, Relation: rel}, nil
}

// Decline deletes otherID's pending request to currentID.
func Decline(currentID, otherID uint, pair Pair) (Decision, error) {
	rel, err := incomingPending(currentID, otherID, pair)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Action: ActionDelete, Relation: rel}, nil
}

// Cancel withdraws currentID's own pending request to otherID.
func Cancel(currentID, otherID uint, pair Pair) (Decision, error) {
	if currentID == otherID {
		return Decision{}, ErrSelfRelation
	}
	f := pair.Forward
	if f == nil || f.Status != models.StatusPending || f.RequesterID != currentID || f.TargetID != otherID {
		return Decision{}, ErrNoPendingRequest
	}
	return Decision{Action: ActionDelete, Relation: *f}, nil
}

// Remove ends an accepted friendship regardless of who sent the request.
func Remove(currentID, otherID uint, pair Pair) (Decision, error) {
	if currentID == otherID {
		return Decision{}, ErrSelfRelation
	}
	for _, rel := range []*models.UserRelation{pair.Forward, pair.Reverse} {
		if rel != nil && rel.Status == models.StatusAccepted {
			return Decision{Action: ActionDelete, Relation: *rel}, nil
		}
	}
	return Decision{}, ErrNotFriends
}

func incomingPending(currentID, otherID uint, pair Pair) (models.UserRelation, error) {
	if currentID == otherID {
		return models.UserRelation{}, ErrSelfRelation
	}
	r := pair.Reverse
	if r == nil || r.Status != models.StatusPending || r.RequesterID != otherID || r.TargetID != currentID {
		return models.UserRelation{}, ErrNoPendingRequest
	}
	return *r, nil
}
