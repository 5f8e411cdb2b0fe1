package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/events"
	"tabletop/backend/internal/hub"
	"tabletop/backend/internal/models"
)

const (
	MaxSpots          = 100
	HostedGamesLimit  = 3
	maxTitleLength    = 255
	maxLocationLength = 255
)

// GameParams is the host-editable part of a game.
type GameParams struct {
	Title           string
	Description     string
	Category        string
	Difficulty      string
	StartsAt        time.Time
	DurationMinutes int
	Location        string
	SpotsTotal      int
}

type GameService struct {
	games     GameStore
	publisher events.Publisher
	notifier  Notifier
	log       *slog.Logger
	now       func() time.Time
}

func NewGameService(games GameStore, publisher events.Publisher, notifier Notifier, log *slog.Logger) *GameService {
	return &GameService{games: games, publisher: publisher, notifier: notifier, log: log, now: time.Now}
}

// Host creates a game owned by hostID with every spot open.
func (s *GameService) Host(ctx context.Context, hostID uint, p GameParams) (*models.Game, error) {
	p = trimGameParams(p)
	if err := s.validate(p); err != nil {
		return nil, err
	}

	game := &models.Game{HostID: hostID, SpotsAvailable: p.SpotsTotal}
	applyGameParams(game, p)
	if err := s.games.CreateGame(ctx, game); err != nil {
		return nil, err
	}
	s.log.Info("game hosted", "game_id", game.ID, "host_id", hostID)
	return s.games.GetGame(ctx, game.ID)
}

func (s *GameService) Get(ctx context.Context, id uint) (*models.Game, error) {
	return s.games.GetGame(ctx, id)
}

// List returns upcoming games, soonest first.
func (s *GameService) List(ctx context.Context, category, query string, page Page) ([]models.Game, int64, error) {
	return s.games.ListUpcoming(ctx, GameFilter{
		Category: strings.TrimSpace(category),
		Query:    strings.TrimSpace(query),
		After:    s.now(),
		Page:     page.Normalize(),
	})
}

// HostedBy returns the next few games hostID is running.
func (s *GameService) HostedBy(ctx context.Context, hostID uint) ([]models.Game, error) {
	return s.games.ListHostedUpcoming(ctx, hostID, s.now(), HostedGamesLimit)
}

// Update replaces the details of a game. Shrinking below the number of
// seats already taken is rejected. Taken seats are counted on the locked
// row so a concurrent reservation is never lost.
func (s *GameService) Update(ctx context.Context, userID, gameID uint, p GameParams) (*models.Game, error) {
	if _, err := s.hostedGame(ctx, userID, gameID); err != nil {
		return nil, err
	}
	p = trimGameParams(p)
	if err := s.validate(p); err != nil {
		return nil, err
	}

	return s.games.UpdateGame(ctx, gameID, func(game *models.Game) error {
		if game.HostID != userID {
			return apperr.ErrForbidden
		}
		taken := game.SpotsTotal - game.SpotsAvailable
		if p.SpotsTotal < taken {
			return apperr.Invalid("spots_total", "%d spots are already reserved", taken)
		}
		applyGameParams(game, p)
		game.SpotsAvailable = p.SpotsTotal - taken
		return nil
	})
}

// SetImage stores an uploaded image URL on a game owned by userID. Only the
// image column is written.
func (s *GameService) SetImage(ctx context.Context, userID, gameID uint, url string) (*models.Game, error) {
	if _, err := s.hostedGame(ctx, userID, gameID); err != nil {
		return nil, err
	}
	if err := s.games.SetGameImage(ctx, gameID, url); err != nil {
		return nil, err
	}
	return s.games.GetGame(ctx, gameID)
}

// CheckHost returns the game if userID hosts it.
func (s *GameService) CheckHost(ctx context.Context, userID, gameID uint) (*models.Game, error) {
	return s.hostedGame(ctx, userID, gameID)
}

func (s *GameService) Delete(ctx context.Context, userID, gameID uint) error {
	game, err := s.hostedGame(ctx, userID, gameID)
	if err != nil {
		return err
	}
	attendees, err := s.games.ListAttendees(ctx, gameID)
	if err != nil {
		return err
	}
	if err := s.games.DeleteGame(ctx, gameID); err != nil {
		return err
	}
	for _, r := range attendees {
		s.notifier.Publish(r.UserID, hub.Event{Type: "game.deleted", Payload: map[string]any{"game_id": game.ID, "title": game.Title}})
	}
	return nil
}

// Reserve takes one seat of gameID for userID.
func (s *GameService) Reserve(ctx context.Context, userID, gameID uint) (*models.Reservation, error) {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.HostID == userID {
		return nil, apperr.Invalid("game", "hosts cannot reserve a spot in their own game")
	}
	if !game.StartsAt.After(s.now()) {
		return nil, apperr.Invalid("game", "game has already started")
	}

	reservation, err := s.games.Reserve(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	s.log.Info("spot reserved", "game_id", gameID, "user_id", userID)
	s.emit(ctx, events.TypeGameReserved, userID, game)
	return reservation, nil
}

// CancelReservation gives userID's seat back.
func (s *GameService) CancelReservation(ctx context.Context, userID, gameID uint) error {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if err := s.games.CancelReservation(ctx, gameID, userID); err != nil {
		return err
	}
	s.emit(ctx, events.TypeGameCancelled, userID, game)
	return nil
}

// Attendees lists users holding a seat.
func (s *GameService) Attendees(ctx context.Context, gameID uint) ([]models.Reservation, error) {
	if _, err := s.games.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	return s.games.ListAttendees(ctx, gameID)
}

// Kick cancels attendeeID's reservation. Only the host may do this.
func (s *GameService) Kick(ctx context.Context, hostID, gameID, attendeeID uint) error {
	game, err := s.hostedGame(ctx, hostID, gameID)
	if err != nil {
		return err
	}
	if attendeeID == hostID {
		return apperr.Invalid("user_id", "host cannot kick themselves")
	}
	if err := s.games.CancelReservation(ctx, gameID, attendeeID); err != nil {
		return err
	}
	s.log.Info("attendee kicked", "game_id", gameID, "host_id", hostID, "user_id", attendeeID)
	s.notifier.Publish(attendeeID, hub.Event{Type: "game.kicked", Payload: map[string]any{"game_id": game.ID, "title": game.Title}})
	return nil
}

func (s *GameService) hostedGame(ctx context.Context, userID, gameID uint) (*models.Game, error) {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.HostID != userID {
		return nil, apperr.ErrForbidden
	}
	return game, nil
}

func (s *GameService) emit(ctx context.Context, eventType string, userID uint, game *models.Game) {
	payload := map[string]any{"game_id": game.ID, "user_id": userID}
	if err := s.publisher.Publish(ctx, events.New(eventType, userID, payload)); err != nil {
		s.log.Warn("publish game event", "event", eventType, "game_id", game.ID, "err", err)
	}
	s.notifier.Publish(game.HostID, hub.Event{Type: eventType, Payload: payload})
}

func (s *GameService) validate(p GameParams) error {
	switch {
	case p.Title == "":
		return apperr.Invalid("title", "is required")
	case len(p.Title) > maxTitleLength:
		return apperr.Invalid("title", "must be at most %d characters", maxTitleLength)
	case p.Category == "":
		return apperr.Invalid("category", "is required")
	case p.Location == "":
		return apperr.Invalid("location", "is required")
	case len(p.Location) > maxLocationLength:
		return apperr.Invalid("location", "must be at most %d characters", maxLocationLength)
	case p.SpotsTotal < 1 || p.SpotsTotal > MaxSpots:
		return apperr.Invalid("spots_total", "must be between 1 and %d", MaxSpots)
	case p.DurationMinutes <= 0:
		return apperr.Invalid("duration_minutes", "must be positive")
	case !p.StartsAt.After(s.now()):
		return apperr.Invalid("starts_at", "must be in the future")
	}
	return nil
}

func trimGameParams(p GameParams) GameParams {
	p.Title = strings.TrimSpace(p.Title)
	p.Category = strings.TrimSpace(p.Category)
	p.Location = strings.TrimSpace(p.Location)
	p.Difficulty = strings.TrimSpace(p.Difficulty)
	return p
}

func applyGameParams(game *models.Game, p GameParams) {
	game.Title = p.Title
	game.Slug = slug.Make(p.Title)
	game.Description = p.Description
	game.Category = p.Category
	game.Difficulty = p.Difficulty
	game.StartsAt = p.StartsAt.UTC()
	game.DurationMinutes = p.DurationMinutes
	game.Location = p.Location
	game.SpotsTotal = p.SpotsTotal
}
