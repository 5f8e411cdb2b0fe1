package models

import (
	"time"

	"gorm.io/gorm"
)

type AchievementCategory string

const (
	CategorySocial  AchievementCategory = "social"
	CategoryEvents  AchievementCategory = "events"
	CategoryGames   AchievementCategory = "games"
	CategoryHosting AchievementCategory = "hosting"
)

// Achievement is a catalog entry. Target is the progress needed to unlock it.
type Achievement struct {
	gorm.Model
	Code        string              `gorm:"size:100;unique;not null"`
	Title       string              `gorm:"size:255;not null"`
	Description string              `gorm:"type:text"`
	Icon        string              `gorm:"size:100"`
	Category    AchievementCategory `gorm:"size:20;not null"`
	Points      int                 `gorm:"not null"`
	Target      int                 `gorm:"not null;default:1"`
}

// UserAchievement tracks one user's progress on one achievement.
type UserAchievement struct {
	UserID        uint `gorm:"primaryKey"`
	AchievementID uint `gorm:"primaryKey"`
	Progress      int  `gorm:"not null;default:0"`
	Unlocked      bool `gorm:"not null;default:false"`
	UnlockedAt    *time.Time
	UpdatedAt     time.Time

	Achievement Achievement `gorm:"foreignKey:AchievementID;constraint:OnDelete:CASCADE;"`
}

// AchievementStatus is a catalog entry joined with a user's progress.
type AchievementStatus struct {
	Achievement
	Progress   int
	Unlocked   bool
	UnlockedAt *time.Time
}
