package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/events"
	"tabletop/backend/internal/hub"
	"tabletop/backend/internal/models"
	"tabletop/backend/internal/progression"
)

// PointsState is a user's progression together with their unlocks.
type PointsState struct {
	Summary progression.Summary
	Unlocks progression.UnlockState
}

// LevelUp is the payload of a level.up event.
type LevelUp struct {
	PreviousLevel int                            `json:"previous_level"`
	Level         int                            `json:"level"`
	Title         string                         `json:"title"`
	NewRewards    []progression.RewardDefinition `json:"new_rewards"`
}

type PointsService struct {
	users        UserStore
	achievements AchievementStore
	engine       *progression.Engine
	publisher    events.Publisher
	notifier     Notifier
	log          *slog.Logger
	now          func() time.Time
}

func NewPointsService(users UserStore, achievements AchievementStore, engine *progression.Engine, publisher events.Publisher, notifier Notifier, log *slog.Logger) *PointsService {
	return &PointsService{
		users:        users,
		achievements: achievements,
		engine:       engine,
		publisher:    publisher,
		notifier:     notifier,
		log:          log,
		now:          time.Now,
	}
}

// Engine exposes the level and reward tables.
func (s *PointsService) Engine() *progression.Engine {
	return s.engine
}

// Summary computes the user's level and brings the stored unlocks up to
// date. The unlocks are only reported once the write has succeeded.
func (s *PointsService) Summary(ctx context.Context, userID uint) (PointsState, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return PointsState{}, err
	}
	summary, err := s.summary(ctx, userID)
	if err != nil {
		return PointsState{}, err
	}

	stored, dirty := s.storedUnlocks(user)
	reconciled := s.engine.ReconcileUnlocks(summary.Level, s.engine.Normalize(stored))
	if dirty || !reconciled.Equal(stored) {
		if err := s.saveUnlocks(ctx, userID, reconciled); err != nil {
			return PointsState{}, err
		}
	}
	return PointsState{Summary: summary, Unlocks: reconciled}, nil
}

// SelectOption picks option for an unlocked feature and returns the new
// state once persisted.
func (s *PointsService) SelectOption(ctx context.Context, userID uint, featureKey, option string) (PointsState, error) {
	state, err := s.Summary(ctx, userID)
	if err != nil {
		return PointsState{}, err
	}

	next, err := s.engine.SelectOption(state.Unlocks, featureKey, option)
	if err != nil {
		return PointsState{}, err
	}
	if err := s.saveUnlocks(ctx, userID, next); err != nil {
		return PointsState{}, err
	}

	payload := map[string]string{"feature": featureKey, "option": option}
	if err := s.publisher.Publish(ctx, events.New(events.TypeRewardSelected, userID, payload)); err != nil {
		s.log.Warn("publish reward selection", "user_id", userID, "err", err)
	}
	return PointsState{Summary: state.Summary, Unlocks: next}, nil
}

// GrantAchievement completes an achievement for the user.
func (s *PointsService) GrantAchievement(ctx context.Context, userID, achievementID uint) (PointsState, error) {
	return s.RecordProgress(ctx, userID, achievementID, -1)
}

// RecordProgress sets the user's progress on an achievement; a negative
// progress means complete. Reaching the target unlocks it for good.
func (s *PointsService) RecordProgress(ctx context.Context, userID, achievementID uint, progress int) (PointsState, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return PointsState{}, err
	}
	achievement, err := s.achievements.GetAchievement(ctx, achievementID)
	if err != nil {
		return PointsState{}, err
	}
	before, err := s.summary(ctx, userID)
	if err != nil {
		return PointsState{}, err
	}

	row, err := s.achievements.GetProgress(ctx, userID, achievementID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		row = &models.UserAchievement{UserID: userID, AchievementID: achievementID}
	case err != nil:
		return PointsState{}, err
	}

	target := max(achievement.Target, 1)
	if progress < 0 || progress > target {
		progress = target
	}
	row.Progress = progress
	if progress >= target && !row.Unlocked {
		now := s.now().UTC()
		row.Unlocked = true
		row.UnlockedAt = &now
	}
	if err := s.achievements.SetProgress(ctx, row); err != nil {
		return PointsState{}, err
	}

	state, err := s.Summary(ctx, userID)
	if err != nil {
		return PointsState{}, err
	}
	if state.Summary.Level > before.Level {
		s.announceLevelUp(ctx, userID, before.Level, state.Summary)
	}
	return state, nil
}

func (s *PointsService) announceLevelUp(ctx context.Context, userID uint, previous int, summary progression.Summary) {
	payload := LevelUp{
		PreviousLevel: previous,
		Level:         summary.Level,
		Title:         summary.Title,
		NewRewards:    []progression.RewardDefinition{},
	}
	for level := previous + 1; level <= summary.Level; level++ {
		payload.NewRewards = append(payload.NewRewards, s.engine.RewardsAt(level)...)
	}

	s.log.Info("level up", "user_id", userID, "from", previous, "to", summary.Level)
	if err := s.publisher.Publish(ctx, events.New(events.TypeLevelUp, userID, payload)); err != nil {
		s.log.Warn("publish level up", "user_id", userID, "err", err)
	}
	s.notifier.Publish(userID, hub.Event{Type: events.TypeLevelUp, Payload: payload})
}

func (s *PointsService) summary(ctx context.Context, userID uint) (progression.Summary, error) {
	statuses, err := s.achievements.ListUserAchievements(ctx, userID)
	if err != nil {
		return progression.Summary{}, err
	}
	points := make([]progression.AchievementPoints, len(statuses))
	for i, st := range statuses {
		points[i] = progression.AchievementPoints{Points: st.Points, Unlocked: st.Unlocked}
	}
	return s.engine.ComputeSummary(progression.TotalPoints(points)), nil
}

// storedUnlocks decodes the user's unlock blob. A corrupt blob is replaced
// by an empty state and reported dirty so it gets rewritten.
func (s *PointsService) storedUnlocks(user *models.User) (progression.UnlockState, bool) {
	state, err := progression.ParseUnlockState(user.Unlocks)
	if err != nil {
		s.log.Warn("discarding malformed unlocks", "user_id", user.ID, "err", err)
		return progression.UnlockState{}, true
	}
	return state, false
}

func (s *PointsService) saveUnlocks(ctx context.Context, userID uint, state progression.UnlockState) error {
	raw, err := state.Encode()
	if err != nil {
		return err
	}
	if err := s.users.UpdateUnlocks(ctx, userID, raw); err != nil {
		s.log.Error("persist unlocks", "user_id", userID, "err", err)
		return err
	}
	return nil
}
