package models

import (
	"time"

	"gorm.io/gorm"
)

// Game is a hosted board-game meetup with a fixed number of seats.
type Game struct {
	gorm.Model
	Title           string    `gorm:"size:255;not null"`
	Slug            string    `gorm:"size:255;index"`
	Description     string    `gorm:"type:text"`
	Category        string    `gorm:"size:100;not null;index"`
	Difficulty      string    `gorm:"size:50"`
	StartsAt        time.Time `gorm:"not null;index"`
	DurationMinutes int       `gorm:"not null"`
	Location        string    `gorm:"size:255;not null"`
	ImageURL        string    `gorm:"size:512"`
	SpotsTotal      int       `gorm:"not null"`
	SpotsAvailable  int       `gorm:"not null"`
	HostID          uint      `gorm:"not null;index"`

	Host User `gorm:"foreignKey:HostID"`
}
