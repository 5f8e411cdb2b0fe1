package models

import "gorm.io/gorm"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation holds one seat of a Game for a User.
type Reservation struct {
	gorm.Model
	GameID uint              `gorm:"not null;index"`
	UserID uint              `gorm:"not null;index"`
	Status ReservationStatus `gorm:"size:20;not null;default:'confirmed'"`

	Game Game `gorm:"foreignKey:GameID"`
	User User `gorm:"foreignKey:UserID"`
}
