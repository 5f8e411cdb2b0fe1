package repository

import (
	"context"

	"gorm.io/gorm"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/models"
	"tabletop/backend/internal/service"
)

type Users struct {
	db *gorm.DB
}

func (r *Users) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate("users.GetByID", err)
	}
	return &user, nil
}

func (r *Users) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", login, login).First(&user).Error
	if err != nil {
		return nil, translate("users.GetByLogin", err)
	}
	return &user, nil
}

func (r *Users) Exists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", username, email).
		Count(&count).Error
	if err != nil {
		return false, translate("users.Exists", err)
	}
	return count > 0, nil
}

func (r *Users) Create(ctx context.Context, user *models.User) error {
	return translate("users.Create", r.db.WithContext(ctx).Create(user).Error)
}

func (r *Users) Update(ctx context.Context, id uint, fields map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return translate("users.Update", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *Users) UpdateUnlocks(ctx context.Context, id uint, unlocks []byte) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("unlocks", unlocks)
	if result.Error != nil {
		return translate("users.UpdateUnlocks", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *Users) Search(ctx context.Context, query string, excludeID uint, page service.Page) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{}).Where("id <> ?", excludeID)
	if query != "" {
		q = q.Where("username ILIKE ?", containsPattern(query))
	}
	users, total, err := Paginate[models.User](q.Order("id"), page)
	if err != nil {
		return nil, 0, translate("users.Search", err)
	}
	return users, total, nil
}
