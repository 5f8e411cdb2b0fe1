// Package presence tracks which users currently have a realtime stream open.
package presence

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Status values reported by a Tracker.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

const (
	onlineTTL  = 5 * time.Minute
	offlineTTL = time.Minute
)

// Tracker records online state per user.
type Tracker interface {
	SetOnline(ctx context.Context, userID uint) error
	SetOffline(ctx context.Context, userID uint) error
	Status(ctx context.Context, userID uint) (string, error)
	OnlineAmong(ctx context.Context, userIDs []uint) ([]uint, error)
}

// Memory is an in-process Tracker used when no Redis is configured.
type Memory struct {
	mu     sync.Mutex
	online map[uint]time.Time
	now    func() time.Time
}

// NewMemory returns an empty in-process tracker.
func NewMemory() *Memory {
	return &Memory{online: make(map[uint]time.Time), now: time.Now}
}

func (m *Memory) SetOnline(_ context.Context, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online[userID] = m.now().Add(onlineTTL)
	return nil
}

func (m *Memory) SetOffline(_ context.Context, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.online, userID)
	return nil
}

func (m *Memory) Status(_ context.Context, userID uint) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isOnline(userID) {
		return StatusOnline, nil
	}
	return StatusOffline, nil
}

func (m *Memory) OnlineAmong(_ context.Context, userIDs []uint) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	online := make([]uint, 0)
	for _, id := range userIDs {
		if m.isOnline(id) && !slices.Contains(online, id) {
			online = append(online, id)
		}
	}
	return online, nil
}

func (m *Memory) isOnline(userID uint) bool {
	expires, ok := m.online[userID]
	return ok && m.now().Before(expires)
}
