package presence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores presence as "presence:{userID}" keys with a TTL so a crashed
// server does not leave users online forever.
type Redis struct {
	client *redis.Client
}

// NewRedis parses url, pings the server and returns a tracker.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func key(userID uint) string {
	return "presence:" + strconv.FormatUint(uint64(userID), 10)
}

func (r *Redis) SetOnline(ctx context.Context, userID uint) error {
	return r.client.Set(ctx, key(userID), StatusOnline, onlineTTL).Err()
}

// SetOffline keeps a short-lived offline marker to avoid flicker on reconnect.
func (r *Redis) SetOffline(ctx context.Context, userID uint) error {
	return r.client.Set(ctx, key(userID), StatusOffline, offlineTTL).Err()
}

func (r *Redis) Status(ctx context.Context, userID uint) (string, error) {
	val, err := r.client.Get(ctx, key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return StatusOffline, nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *Redis) OnlineAmong(ctx context.Context, userIDs []uint) ([]uint, error) {
	online := make([]uint, 0)
	if len(userIDs) == 0 {
		return online, nil
	}

	// Pipeline to reduce roundtrips
	cmds, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Get(ctx, key(id))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	for i, cmd := range cmds {
		if val, _ := cmd.(*redis.StringCmd).Result(); val == StatusOnline {
			online = append(online, userIDs[i])
		}
	}
	return online, nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
