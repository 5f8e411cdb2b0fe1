package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"tabletop/backend/internal/events"
	"tabletop/backend/internal/hub"
	"tabletop/backend/internal/models"
	"tabletop/backend/internal/repository/memory"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type notification struct {
	userID uint
	event  hub.Event
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Publish(userID uint, event hub.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{userID, event})
}

func (n *recordingNotifier) to(userID uint) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		if s.userID == userID {
			out = append(out, s.event.Type)
		}
	}
	return out
}

type fakeTokens struct{}

func (fakeTokens) GenerateToken(userID uint) (string, error) {
	return fmt.Sprintf("token-%d", userID), nil
}

func createUser(t *testing.T, store *memory.Store, name string) models.User {
	t.Helper()
	u := models.User{Username: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, store.Create(context.Background(), &u))
	return u
}
