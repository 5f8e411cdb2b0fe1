package models

import "gorm.io/gorm"

// AccountType distinguishes players from venues such as game cafes.
type AccountType string

const (
	AccountPersonal AccountType = "personal"
	AccountBusiness AccountType = "business"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User owns the profile fields and the persisted unlock blob.
type User struct {
	gorm.Model
	Username     string      `gorm:"size:255;unique;not null"`
	Email        string      `gorm:"size:255;unique;not null"`
	PasswordHash string      `gorm:"size:255;not null"`
	Role         string      `gorm:"size:50;not null;default:'user';index"`
	FullName     string      `gorm:"size:255"`
	AvatarURL    string      `gorm:"size:512"`
	Bio          string      `gorm:"type:text"`
	AccountType  AccountType `gorm:"size:20;not null;default:'personal'"`

	// Business accounts only.
	BusinessName    string `gorm:"size:255"`
	BusinessType    string `gorm:"size:100"`
	BusinessAddress string `gorm:"size:255"`
	BusinessCity    string `gorm:"size:100"`
	BusinessState   string `gorm:"size:50"`
	BusinessZip     string `gorm:"size:20"`

	// Unlocks is the JSON-encoded progression.UnlockState. It is decoded and
	// validated by the points service, never read directly.
	Unlocks []byte `gorm:"type:jsonb"`
}
