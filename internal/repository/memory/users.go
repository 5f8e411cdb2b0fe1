package memory

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"tabletop/backend/internal/apperr"
	"tabletop/backend/internal/models"
	"tabletop/backend/internal/service"
)

func (s *Store) GetByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	u = cloneUser(u)
	return &u, nil
}

func (s *Store) GetByLogin(_ context.Context, login string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, login) || strings.EqualFold(u.Email, login) {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *Store) Exists(_ context.Context, username, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taken(username, email), nil
}

func (s *Store) taken(username, email string) bool {
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) || strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *Store) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taken(user.Username, user.Email) {
		return apperr.ErrConflict
	}
	now := s.now()
	user.ID = s.id()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.AccountType == "" {
		user.AccountType = models.AccountPersonal
	}
	s.users[user.ID] = cloneUser(*user)
	return nil
}

func (s *Store) Update(_ context.Context, id uint, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	for column, value := range fields {
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("memory: column %s expects a string, got %T", column, value)
		}
		switch column {
		case "full_name":
			u.FullName = v
		case "bio":
			u.Bio = v
		case "avatar_url":
			u.AvatarURL = v
		case "business_name":
			u.BusinessName = v
		case "business_type":
			u.BusinessType = v
		case "business_address":
			u.BusinessAddress = v
		case "business_city":
			u.BusinessCity = v
		case "business_state":
			u.BusinessState = v
		case "business_zip":
			u.BusinessZip = v
		default:
			return fmt.Errorf("memory: unknown user column %q", column)
		}
	}
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

func (s *Store) UpdateUnlocks(_ context.Context, id uint, unlocks []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.ErrNotFound
	}
	u.Unlocks = bytes.Clone(unlocks)
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

func (s *Store) Search(_ context.Context, query string, excludeID uint, page service.Page) ([]models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(query)
	var matched []models.User
	for _, u := range s.users {
		if u.ID == excludeID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.Username), q) {
			continue
		}
		matched = append(matched, cloneUser(u))
	}
	slices.SortFunc(matched, func(a, b models.User) int { return int(a.ID) - int(b.ID) })
	return paginate(matched, page), int64(len(matched)), nil
}

func cloneUser(u models.User) models.User {
	u.Unlocks = bytes.Clone(u.Unlocks)
	return u
}
