package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTracker(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	status, err := m.Status(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusOffline, status)

	require.NoError(t, m.SetOnline(ctx, 1))
	require.NoError(t, m.SetOnline(ctx, 3))

	status, err = m.Status(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusOnline, status)

	online, err := m.OnlineAmong(ctx, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 3}, online)

	require.NoError(t, m.SetOffline(ctx, 1))
	online, err = m.OnlineAmong(ctx, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []uint{3}, online)
}

func TestMemoryTrackerExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.SetOnline(ctx, 1))
	now = now.Add(onlineTTL + time.Second)

	status, err := m.Status(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusOffline, status)
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "presence:42", key(42))
}
