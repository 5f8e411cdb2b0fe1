// Package repository implements the service stores on PostgreSQL via gorm.
package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/service"
)

var (
	_ service.UserStore        = (*Users)(nil)
	_ service.FriendStore      = (*Friends)(nil)
	_ service.AchievementStore = (*Achievements)(nil)
	_ service.GameStore        = (*Games)(nil)
	_ service.MessageStore     = (*Messages)(nil)
)

// Stores groups every gorm-backed store over one connection.
type Stores struct {
	Users        *Users
	Friends      *Friends
	Achievements *Achievements
	Games        *Games
	Messages     *Messages
}

func New(db *gorm.DB) *Stores {
	return &Stores{
		Users:        &Users{db: db},
		Friends:      &Friends{db: db},
		Achievements: &Achievements{db: db},
		Games:        &Games{db: db},
		Messages:     &Messages{db: db},
	}
}

// translate maps gorm errors onto the apperr kinds. gorm must be opened
// with TranslateError so unique violations surface as ErrDuplicatedKey.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.ErrConflict
	default:
		return apperr.Remote(op, err)
	}
}

// Paginate counts the rows matched by query and returns one page of them.
func Paginate[T any](query *gorm.DB, page service.Page) ([]T, int64, error) {
	page = page.Normalize()

	var totalItems int64
	if err := query.Session(&gorm.Session{}).Model(new(T)).Count(&totalItems).Error; err != nil {
		return nil, 0, err
	}

	results := []T{}
	if err := query.Offset(page.Offset()).Limit(page.Size).Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, totalItems, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s literally anywhere.
// PostgreSQL's default LIKE escape character is the backslash.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
