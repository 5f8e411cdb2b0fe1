package database

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"tabletop/backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the PostgreSQL connection and runs migrations.
func Connect(dsn string) (*gorm.DB, error) {
	// Configure GORM logger
	customLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             200 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Warn,            // Log level
			IgnoreRecordNotFoundError: true,                   // Ignore ErrRecordNotFound error for logger
			Colorful:                  true,                   // Enable color
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         customLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	slog.Info("database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	slog.Info("database migrated successfully")
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.UserRelation{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.Game{},
		&models.Reservation{},
		&models.Message{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	// Usernames and emails are unique regardless of case.
	for _, stmt := range caseInsensitiveIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}
	return nil
}

var caseInsensitiveIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))`,
}
