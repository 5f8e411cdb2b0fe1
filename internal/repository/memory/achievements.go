package memory

import (
	"context"
	"slices"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/models"
)

func (s *Store) ListUserAchievements(_ context.Context, userID uint) ([]models.AchievementStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AchievementStatus, 0, len(s.achievements))
	for _, a := range s.sortedAchievements() {
		st := models.AchievementStatus{Achievement: a}
		if p, ok := s.progress[progressKey{userID, a.ID}]; ok {
			st.Progress = p.Progress
			st.Unlocked = p.Unlocked
			st.UnlockedAt = p.UnlockedAt
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *Store) ListAchievements(_ context.Context) ([]models.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedAchievements(), nil
}

func (s *Store) sortedAchievements() []models.Achievement {
	out := make([]models.Achievement, 0, len(s.achievements))
	for _, a := range s.achievements {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b models.Achievement) int { return int(a.ID) - int(b.ID) })
	return out
}

func (s *Store) GetAchievement(_ context.Context, id uint) (*models.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.achievements[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &a, nil
}

func (s *Store) CreateAchievement(_ context.Context, a *models.Achievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codeTaken(a.Code, 0) {
		return apperr.ErrConflict
	}
	now := s.now()
	a.ID = s.id()
	a.CreatedAt, a.UpdatedAt = now, now
	s.achievements[a.ID] = *a
	return nil
}

func (s *Store) UpdateAchievement(_ context.Context, a *models.Achievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.achievements[a.ID]; !ok {
		return apperr.ErrNotFound
	}
	if s.codeTaken(a.Code, a.ID) {
		return apperr.ErrConflict
	}
	a.UpdatedAt = s.now()
	s.achievements[a.ID] = *a
	return nil
}

func (s *Store) DeleteAchievement(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.achievements[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(s.achievements, id)
	for k := range s.progress {
		if k.achievementID == id {
			delete(s.progress, k)
		}
	}
	return nil
}

func (s *Store) codeTaken(code string, exceptID uint) bool {
	for _, a := range s.achievements {
		if a.Code == code && a.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *Store) GetProgress(_ context.Context, userID, achievementID uint) (*models.UserAchievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[progressKey{userID, achievementID}]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &p, nil
}

func (s *Store) SetProgress(_ context.Context, p *models.UserAchievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.achievements[p.AchievementID]; !ok {
		return apperr.ErrNotFound
	}
	p.UpdatedAt = s.now()
	stored := *p
	stored.Achievement = models.Achievement{}
	s.progress[progressKey{p.UserID, p.AchievementID}] = stored
	return nil
}
