package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/models"
	"tabletop/backend/internal/service"
)

type Friends struct {
	db *gorm.DB
}

func (r *Friends) FindRelationship(ctx context.Context, requesterID, targetID uint) (*models.UserRelation, error) {
	var rel models.UserRelation
	err := r.db.WithContext(ctx).Where("requester_id = ? AND target_id = ?", requesterID, targetID).First(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("friends.FindRelationship", err)
	}
	return &rel, nil
}

func (r *Friends) InsertRelationship(ctx context.Context, rel *models.UserRelation) error {
	return translate("friends.InsertRelationship", r.db.WithContext(ctx).Omit("Requester", "Target").Create(rel).Error)
}

func (r *Friends) UpdateStatus(ctx context.Context, id uint, status models.FriendshipStatus) error {
	result := r.db.WithContext(ctx).Model(&models.UserRelation{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return translate("friends.UpdateStatus", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *Friends) DeleteRelationship(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.UserRelation{}, id)
	if result.Error != nil {
		return translate("friends.DeleteRelationship", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *Friends) ListRelations(ctx context.Context, userID uint, status models.FriendshipStatus, dir service.Direction) ([]models.UserRelation, error) {
	rels := []models.UserRelation{}
	err := r.filter(ctx, userID, status, dir).
		Preload("Requester").
		Preload("Target").
		Order("id").
		Find(&rels).Error
	if err != nil {
		return nil, translate("friends.ListRelations", err)
	}
	return rels, nil
}

func (r *Friends) CountRelations(ctx context.Context, userID uint, status models.FriendshipStatus, dir service.Direction) (int64, error) {
	var count int64
	if err := r.filter(ctx, userID, status, dir).Count(&count).Error; err != nil {
		return 0, translate("friends.CountRelations", err)
	}
	return count, nil
}

func (r *Friends) filter(ctx context.Context, userID uint, status models.FriendshipStatus, dir service.Direction) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.UserRelation{})
	switch dir {
	case service.DirectionIncoming:
		query = query.Where("target_id = ?", userID)
	case service.DirectionOutgoing:
		query = query.Where("requester_id = ?", userID)
	default:
		query = query.Where("requester_id = ? OR target_id = ?", userID, userID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return query
}
