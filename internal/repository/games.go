package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/models"
	"tabletop/backend/internal/service"
)

type Games struct {
	db *gorm.DB
}

func (r *Games) CreateGame(ctx context.Context, game *models.Game) error {
	return translate("games.CreateGame", r.db.WithContext(ctx).Omit("Host").Create(game).Error)
}

func (r *Games) GetGame(ctx context.Context, id uint) (*models.Game, error) {
	var game models.Game
	if err := r.db.WithContext(ctx).Preload("Host").First(&game, id).Error; err != nil {
		return nil, translate("games.GetGame", err)
	}
	return &game, nil
}

// UpdateGame runs apply on the row locked FOR UPDATE, so reservations
// committed meanwhile are reflected in SpotsAvailable.
func (r *Games) UpdateGame(ctx context.Context, id uint, apply func(*models.Game) error) (*models.Game, error) {
	var applyErr error
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&game, id).Error; err != nil {
			return err
		}
		if applyErr = apply(&game); applyErr != nil {
			return applyErr
		}
		return tx.Omit("Host").Save(&game).Error
	})
	if applyErr != nil {
		return nil, applyErr
	}
	if err != nil {
		return nil, translate("games.UpdateGame", err)
	}
	return r.GetGame(ctx, id)
}

func (r *Games) SetGameImage(ctx context.Context, id uint, url string) error {
	result := r.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).Update("image_url", url)
	if result.Error != nil {
		return translate("games.SetGameImage", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *Games) DeleteGame(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", id).Delete(&models.Reservation{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Game{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate("games.DeleteGame", err)
}

func (r *Games) ListUpcoming(ctx context.Context, f service.GameFilter) ([]models.Game, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Game{}).Where("starts_at > ?", f.After)
	if f.Category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", f.Category)
	}
	if f.Query != "" {
		like := containsPattern(f.Query)
		query = query.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}
	games, total, err := Paginate[models.Game](query.Preload("Host").Order("starts_at, id"), f.Page)
	if err != nil {
		return nil, 0, translate("games.ListUpcoming", err)
	}
	return games, total, nil
}

func (r *Games) ListHostedUpcoming(ctx context.Context, hostID uint, after time.Time, limit int) ([]models.Game, error) {
	games := []models.Game{}
	err := r.db.WithContext(ctx).
		Preload("Host").
		Where("host_id = ? AND starts_at > ?", hostID, after).
		Order("starts_at, id").
		Limit(limit).
		Find(&games).Error
	if err != nil {
		return nil, translate("games.ListHostedUpcoming", err)
	}
	return games, nil
}

// Reserve locks the game row so concurrent reservations cannot oversell it.
func (r *Games) Reserve(ctx context.Context, gameID, userID uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&game, gameID).Error; err != nil {
			return err
		}

		var existing int64
		err := tx.Model(&models.Reservation{}).
			Where("game_id = ? AND user_id = ? AND status <> ?", gameID, userID, models.ReservationCancelled).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return apperr.ErrAlreadyReserved
		}
		if game.SpotsAvailable <= 0 {
			return apperr.ErrGameFull
		}

		reservation = models.Reservation{GameID: gameID, UserID: userID, Status: models.ReservationConfirmed}
		if err := tx.Omit("Game", "User").Create(&reservation).Error; err != nil {
			return err
		}
		return tx.Model(&game).Update("spots_available", gorm.Expr("spots_available - 1")).Error
	})
	if err != nil {
		return nil, reservationError("games.Reserve", err)
	}
	return &reservation, nil
}

func (r *Games) CancelReservation(ctx context.Context, gameID, userID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&game, gameID).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Reservation{}).
			Where("game_id = ? AND user_id = ? AND status <> ?", gameID, userID, models.ReservationCancelled).
			Update("status", models.ReservationCancelled)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperr.ErrNoReservation
		}
		return tx.Model(&game).
			Update("spots_available", gorm.Expr("LEAST(spots_available + 1, spots_total)")).Error
	})
	return reservationError("games.CancelReservation", err)
}

func (r *Games) ListAttendees(ctx context.Context, gameID uint) ([]models.Reservation, error) {
	out := []models.Reservation{}
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("game_id = ? AND status <> ?", gameID, models.ReservationCancelled).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, translate("games.ListAttendees", err)
	}
	return out, nil
}

func reservationError(op string, err error) error {
	for _, sentinel := range []error{apperr.ErrAlreadyReserved, apperr.ErrGameFull, apperr.ErrNoReservation} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return translate(op, err)
}
