package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/models"
	"tabletop/backend/internal/service"
)

func (s *Store) CreateGame(_ context.Context, game *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[game.HostID]; !ok {
		return apperr.ErrNotFound
	}
	now := s.now()
	game.ID = s.id()
	game.CreatedAt, game.UpdatedAt = now, now
	stored := *game
	stored.Host = models.User{}
	s.games[game.ID] = stored
	return nil
}

func (s *Store) GetGame(_ context.Context, id uint) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	g = s.withHost(g)
	return &g, nil
}

// UpdateGame runs apply while holding the store lock. apply must not call
// back into the store.
func (s *Store) UpdateGame(_ context.Context, id uint, apply func(*models.Game) error) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if err := apply(&g); err != nil {
		return nil, err
	}
	g.ID = id
	g.UpdatedAt = s.now()
	g.Host = models.User{}
	s.games[id] = g
	out := s.withHost(g)
	return &out, nil
}

func (s *Store) SetGameImage(_ context.Context, id uint, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return apperr.ErrNotFound
	}
	g.ImageURL = url
	g.UpdatedAt = s.now()
	s.games[id] = g
	return nil
}

func (s *Store) DeleteGame(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(s.games, id)
	for rid, r := range s.reservations {
		if r.GameID == id {
			delete(s.reservations, rid)
		}
	}
	return nil
}

func (s *Store) ListUpcoming(_ context.Context, f service.GameFilter) ([]models.Game, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(f.Query)
	var matched []models.Game
	for _, g := range s.games {
		if !g.StartsAt.After(f.After) {
			continue
		}
		if f.Category != "" && !strings.EqualFold(g.Category, f.Category) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(g.Title), q) && !strings.Contains(strings.ToLower(g.Description), q) {
			continue
		}
		matched = append(matched, s.withHost(g))
	}
	sortByStart(matched)
	return paginate(matched, f.Page), int64(len(matched)), nil
}

func (s *Store) ListHostedUpcoming(_ context.Context, hostID uint, after time.Time, limit int) ([]models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []models.Game{}
	for _, g := range s.games {
		if g.HostID == hostID && g.StartsAt.After(after) {
			matched = append(matched, s.withHost(g))
		}
	}
	sortByStart(matched)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *Store) Reserve(_ context.Context, gameID, userID uint) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if _, ok := s.activeReservation(gameID, userID); ok {
		return nil, apperr.ErrAlreadyReserved
	}
	if g.SpotsAvailable <= 0 {
		return nil, apperr.ErrGameFull
	}

	now := s.now()
	r := models.Reservation{GameID: gameID, UserID: userID, Status: models.ReservationConfirmed}
	r.ID = s.id()
	r.CreatedAt, r.UpdatedAt = now, now
	s.reservations[r.ID] = r

	g.SpotsAvailable--
	s.games[gameID] = g
	return &r, nil
}

func (s *Store) CancelReservation(_ context.Context, gameID, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return apperr.ErrNotFound
	}
	r, ok := s.activeReservation(gameID, userID)
	if !ok {
		return apperr.ErrNoReservation
	}
	r.Status = models.ReservationCancelled
	r.UpdatedAt = s.now()
	s.reservations[r.ID] = r

	g.SpotsAvailable = min(g.SpotsAvailable+1, g.SpotsTotal)
	s.games[gameID] = g
	return nil
}

func (s *Store) ListAttendees(_ context.Context, gameID uint) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Reservation{}
	for _, r := range s.reservations {
		if r.GameID == gameID && r.Status != models.ReservationCancelled {
			r.User = cloneUser(s.users[r.UserID])
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b models.Reservation) int { return int(a.ID) - int(b.ID) })
	return out, nil
}

func (s *Store) activeReservation(gameID, userID uint) (models.Reservation, bool) {
	for _, r := range s.reservations {
		if r.GameID == gameID && r.UserID == userID && r.Status != models.ReservationCancelled {
			return r, true
		}
	}
	return models.Reservation{}, false
}

func (s *Store) withHost(g models.Game) models.Game {
	g.Host = cloneUser(s.users[g.HostID])
	return g
}

func sortByStart(games []models.Game) {
	slices.SortFunc(games, func(a, b models.Game) int {
		if c := a.StartsAt.Compare(b.StartsAt); c != 0 {
			return c
		}
		return int(a.ID) - int(b.ID)
	})
}
