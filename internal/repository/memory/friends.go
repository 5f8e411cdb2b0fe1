package memory

import (
	"context"
	"slices"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/models"
	"tabletop/backend/internal/service"
)

func (s *Store) FindRelationship(_ context.Context, requesterID, targetID uint) (*models.UserRelation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.relations {
		if r.RequesterID == requesterID && r.TargetID == targetID {
			return &r, nil
		}
	}
	return nil, nil
}

func (s *Store) InsertRelationship(_ context.Context, rel *models.UserRelation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.relations {
		if r.RequesterID == rel.RequesterID && r.TargetID == rel.TargetID {
			return apperr.ErrConflict
		}
	}
	now := s.now()
	rel.ID = s.id()
	rel.CreatedAt, rel.UpdatedAt = now, now
	stored := *rel
	stored.Requester, stored.Target = models.User{}, models.User{}
	s.relations[rel.ID] = stored
	return nil
}

func (s *Store) UpdateStatus(_ context.Context, id uint, status models.FriendshipStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.relations[id]
	if !ok {
		return apperr.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = s.now()
	s.relations[id] = r
	return nil
}

func (s *Store) DeleteRelationship(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.relations[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(s.relations, id)
	return nil
}

func (s *Store) ListRelations(_ context.Context, userID uint, status models.FriendshipStatus, dir service.Direction) ([]models.UserRelation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.matchRelations(userID, status, dir)
	for i := range out {
		out[i].Requester = cloneUser(s.users[out[i].RequesterID])
		out[i].Target = cloneUser(s.users[out[i].TargetID])
	}
	return out, nil
}

func (s *Store) CountRelations(_ context.Context, userID uint, status models.FriendshipStatus, dir service.Direction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.matchRelations(userID, status, dir))), nil
}

func (s *Store) matchRelations(userID uint, status models.FriendshipStatus, dir service.Direction) []models.UserRelation {
	out := []models.UserRelation{}
	for _, r := range s.relations {
		if status != "" && r.Status != status {
			continue
		}
		switch dir {
		case service.DirectionIncoming:
			if r.TargetID != userID {
				continue
			}
		case service.DirectionOutgoing:
			if r.RequesterID != userID {
				continue
			}
		default:
			if r.RequesterID != userID && r.TargetID != userID {
				continue
			}
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b models.UserRelation) int { return int(a.ID) - int(b.ID) })
	return out
}
