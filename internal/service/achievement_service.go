package service

import (
	"context"
	"log/slog"
	"strings"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/models"
)

type AchievementService struct {
	achievements AchievementStore
	log          *slog.Logger
}

func NewAchievementService(achievements AchievementStore, log *slog.Logger) *AchievementService {
	return &AchievementService{achievements: achievements, log: log}
}

func (s *AchievementService) List(ctx context.Context) ([]models.Achievement, error) {
	return s.achievements.ListAchievements(ctx)
}

func (s *AchievementService) Get(ctx context.Context, id uint) (*models.Achievement, error) {
	return s.achievements.GetAchievement(ctx, id)
}

func (s *AchievementService) Create(ctx context.Context, a models.Achievement) (*models.Achievement, error) {
	if err := validateAchievement(&a); err != nil {
		return nil, err
	}
	if err := s.achievements.CreateAchievement(ctx, &a); err != nil {
		return nil, err
	}
	s.log.Info("achievement created", "achievement_id", a.ID, "code", a.Code)
	return &a, nil
}

// Update replaces the editable fields of achievement id.
func (s *AchievementService) Update(ctx context.Context, id uint, in models.Achievement) (*models.Achievement, error) {
	existing, err := s.achievements.GetAchievement(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateAchievement(&in); err != nil {
		return nil, err
	}
	existing.Code = in.Code
	existing.Title = in.Title
	existing.Description = in.Description
	existing.Icon = in.Icon
	existing.Category = in.Category
	existing.Points = in.Points
	existing.Target = in.Target
	if err := s.achievements.UpdateAchievement(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *AchievementService) Delete(ctx context.Context, id uint) error {
	return s.achievements.DeleteAchievement(ctx, id)
}

// ForUser returns the catalog with userID's progress.
func (s *AchievementService) ForUser(ctx context.Context, userID uint) ([]models.AchievementStatus, error) {
	return s.achievements.ListUserAchievements(ctx, userID)
}

func validateAchievement(a *models.Achievement) error {
	a.Code = strings.TrimSpace(a.Code)
	a.Title = strings.TrimSpace(a.Title)
	if a.Target == 0 {
		a.Target = 1
	}
	switch {
	case a.Code == "":
		return apperr.Invalid("code", "is required")
	case a.Title == "":
		return apperr.Invalid("title", "is required")
	case a.Points < 0:
		return apperr.Invalid("points", "must not be negative")
	case a.Target < 1:
		return apperr.Invalid("target", "must be at least 1")
	}
	switch a.Category {
	case models.CategorySocial, models.CategoryEvents, models.CategoryGames, models.CategoryHosting:
	default:
		return apperr.Invalid("category", "must be one of social, events, games, hosting")
	}
	return nil
}
