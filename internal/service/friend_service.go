package service

import (
	"context"
	"fmt"
	"log/slog"

	"tabletop/backend/internal/events"
	"tabletop/backend/internal/friendship"
	"tabletop/backend/internal/hub"
	"tabletop/backend/internal/models"
)

type FriendService struct {
	friends   FriendStore
	users     UserStore
	publisher events.Publisher
	notifier  Notifier
	log       *slog.Logger
}

func NewFriendService(friends FriendStore, users UserStore, publisher events.Publisher, notifier Notifier, log *slog.Logger) *FriendService {
	return &FriendService{friends: friends, users: users, publisher: publisher, notifier: notifier, log: log}
}

type decideFunc func(currentID, otherID uint, pair friendship.Pair) (friendship.Decision, error)

// Request sends a friend request from currentID to targetID.
func (s *FriendService) Request(ctx context.Context, currentID, targetID uint) (*models.UserRelation, error) {
	if currentID != targetID {
		// Target must exist before anything is written.
		if _, err := s.users.GetByID(ctx, targetID); err != nil {
			return nil, err
		}
	}
	return s.apply(ctx, currentID, targetID, friendship.Request, events.TypeFriendRequested)
}

// Accept accepts the pending request otherID sent to currentID.
func (s *FriendService) Accept(ctx context.Context, currentID, otherID uint) (*models.UserRelation, error) {
	return s.apply(ctx, currentID, otherID, friendship.Accept, events.TypeFriendAccepted)
}

// Decline deletes the pending request otherID sent to currentID.
func (s *FriendService) Decline(ctx context.Context, currentID, otherID uint) error {
	_, err := s.apply(ctx, currentID, otherID, friendship.Decline, events.TypeFriendDeclined)
	return err
}

// Cancel withdraws the request currentID sent to otherID.
func (s *FriendService) Cancel(ctx context.Context, currentID, otherID uint) error {
	_, err := s.apply(ctx, currentID, otherID, friendship.Cancel, events.TypeFriendCancelled)
	return err
}

// Remove ends an accepted friendship in either direction.
func (s *FriendService) Remove(ctx context.Context, currentID, otherID uint) error {
	_, err := s.apply(ctx, currentID, otherID, friendship.Remove, events.TypeFriendRemoved)
	return err
}

// Status reports the relationship between currentID and otherID.
func (s *FriendService) Status(ctx context.Context, currentID, otherID uint) (friendship.View, error) {
	if currentID == otherID {
		return friendship.ViewNone, nil
	}
	pair, err := lookupPair(ctx, s.friends, currentID, otherID)
	if err != nil {
		return "", err
	}
	return friendship.StatusOf(pair), nil
}

// Friends lists the users userID is friends with.
func (s *FriendService) Friends(ctx context.Context, userID uint) ([]models.User, error) {
	rels, err := s.friends.ListRelations(ctx, userID, models.StatusAccepted, DirectionAny)
	if err != nil {
		return nil, err
	}
	return others(userID, rels), nil
}

// Requests lists users with a pending request to (incoming) or from
// (outgoing) userID.
func (s *FriendService) Requests(ctx context.Context, userID uint, dir Direction) ([]models.User, error) {
	if dir != DirectionIncoming && dir != DirectionOutgoing {
		dir = DirectionIncoming
	}
	rels, err := s.friends.ListRelations(ctx, userID, models.StatusPending, dir)
	if err != nil {
		return nil, err
	}
	return others(userID, rels), nil
}

func (s *FriendService) apply(ctx context.Context, currentID, otherID uint, decide decideFunc, eventType string) (*models.UserRelation, error) {
	pair, err := lookupPair(ctx, s.friends, currentID, otherID)
	if err != nil {
		return nil, err
	}
	decision, err := decide(currentID, otherID, pair)
	if err != nil {
		return nil, err
	}

	rel := decision.Relation
	switch decision.Action {
	case friendship.ActionInsert:
		err = s.friends.InsertRelationship(ctx, &rel)
	case friendship.ActionUpdateStatus:
		err = s.friends.UpdateStatus(ctx, rel.ID, rel.Status)
	case friendship.ActionDelete:
		err = s.friends.DeleteRelationship(ctx, rel.ID)
	default:
		err = fmt.Errorf("friendship: unknown action %v", decision.Action)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("friendship changed", "event", eventType, "user_id", currentID, "other_id", otherID, "action", decision.Action.String())
	payload := map[string]uint{"from_user_id": currentID, "to_user_id": otherID}
	if err := s.publisher.Publish(ctx, events.New(eventType, currentID, payload)); err != nil {
		s.log.Warn("publish friendship event", "event", eventType, "user_id", currentID, "err", err)
	}
	s.notifier.Publish(otherID, hub.Event{Type: eventType, Payload: payload})
	return &rel, nil
}

func lookupPair(ctx context.Context, store FriendStore, currentID, otherID uint) (friendship.Pair, error) {
	forward, err := store.FindRelationship(ctx, currentID, otherID)
	if err != nil {
		return friendship.Pair{}, err
	}
	reverse, err := store.FindRelationship(ctx, otherID, currentID)
	if err != nil {
		return friendship.Pair{}, err
	}
	return friendship.Pair{Forward: forward, Reverse: reverse}, nil
}

func others(userID uint, rels []models.UserRelation) []models.User {
	users := make([]models.User, 0, len(rels))
	for _, r := range rels {
		u := r.Target
		if r.TargetID == userID {
			u = r.Requester
		}
		// Skip entries whose user row was not loaded
		if u.ID == 0 {
			continue
		}
		users = append(users, u)
	}
	return users
}
