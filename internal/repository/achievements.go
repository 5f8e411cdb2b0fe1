package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/models"
)

type Achievements struct {
	db *gorm.DB
}

func (r *Achievements) ListUserAchievements(ctx context.Context, userID uint) ([]models.AchievementStatus, error) {
	out := []models.AchievementStatus{}
	err := r.db.WithContext(ctx).Model(&models.Achievement{}).
		Select("achievements.*, COALESCE(ua.progress, 0) AS progress, COALESCE(ua.unlocked, false) AS unlocked, ua.unlocked_at").
		Joins("LEFT JOIN user_achievements ua ON ua.achievement_id = achievements.id AND ua.user_id = ?", userID).
		Order("achievements.id").
		Scan(&out).Error
	if err != nil {
		return nil, translate("achievements.ListUserAchievements", err)
	}
	return out, nil
}

func (r *Achievements) ListAchievements(ctx context.Context) ([]models.Achievement, error) {
	out := []models.Achievement{}
	if err := r.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, translate("achievements.ListAchievements", err)
	}
	return out, nil
}

func (r *Achievements) GetAchievement(ctx context.Context, id uint) (*models.Achievement, error) {
	var a models.Achievement
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translate("achievements.GetAchievement", err)
	}
	return &a, nil
}

func (r *Achievements) CreateAchievement(ctx context.Context, a *models.Achievement) error {
	return translate("achievements.CreateAchievement", r.db.WithContext(ctx).Create(a).Error)
}

func (r *Achievements) UpdateAchievement(ctx context.Context, a *models.Achievement) error {
	return translate("achievements.UpdateAchievement", r.db.WithContext(ctx).Save(a).Error)
}

// DeleteAchievement removes the row for good so progress rows cascade and
// the code can be reused.
func (r *Achievements) DeleteAchievement(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Unscoped().Delete(&models.Achievement{}, id)
	if result.Error != nil {
		return translate("achievements.DeleteAchievement", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *Achievements) GetProgress(ctx context.Context, userID, achievementID uint) (*models.UserAchievement, error) {
	var p models.UserAchievement
	err := r.db.WithContext(ctx).Where("user_id = ? AND achievement_id = ?", userID, achievementID).First(&p).Error
	if err != nil {
		return nil, translate("achievements.GetProgress", err)
	}
	return &p, nil
}

func (r *Achievements) SetProgress(ctx context.Context, p *models.UserAchievement) error {
	err := r.db.WithContext(ctx).Omit("Achievement").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"progress", "unlocked", "unlocked_at", "updated_at"}),
	}).Create(p).Error
	return translate("achievements.SetProgress", err)
}
