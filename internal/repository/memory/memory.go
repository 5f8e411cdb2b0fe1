// Package memory keeps every store in process memory. It backs the tests
// and the server's -memory development mode.
package memory

import (
	"sync"
	"time"

	"tabletop/backend/internal/models"
	"tabletop/backend/internal/service"
)

var (
	_ service.UserStore        = (*Store)(nil)
	_ service.FriendStore      = (*Store)(nil)
	_ service.AchievementStore = (*Store)(nil)
	_ service.GameStore        = (*Store)(nil)
	_ service.MessageStore     = (*Store)(nil)
)

type progressKey struct {
	userID, achievementID uint
}

// Store implements all service stores over maps guarded by one mutex.
type Store struct {
	mu sync.Mutex

	users        map[uint]models.User
	relations    map[uint]models.UserRelation
	achievements map[uint]models.Achievement
	progress     map[progressKey]models.UserAchievement
	games        map[uint]models.Game
	reservations map[uint]models.Reservation
	messages     []models.Message

	nextID uint
	now    func() time.Time
}

func New() *Store {
	return &Store{
		users:        make(map[uint]models.User),
		relations:    make(map[uint]models.UserRelation),
		achievements: make(map[uint]models.Achievement),
		progress:     make(map[progressKey]models.UserAchievement),
		games:        make(map[uint]models.Game),
		reservations: make(map[uint]models.Reservation),
		now:          time.Now,
	}
}

// SetClock replaces the time source used for CreatedAt and similar fields.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func paginate[T any](items []T, page service.Page) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+page.Size, len(items))
	return items[start:end]
}
