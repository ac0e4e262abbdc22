package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lastSeenTTL = 30 * 24 * time.Hour

// LastSeen is an opportunistic redis cache of when a user was last seen
// online. It is a display hint only and may disagree with the live
// presence directory during races.
type LastSeen struct {
	client *redis.Client
}

func NewLastSeen(ctx context.Context, redisURL string) (*LastSeen, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &LastSeen{client: client}, nil
}

func (c *LastSeen) Close() error {
	return c.client.Close()
}

func lastSeenKey(userID uuid.UUID) string {
	return fmt.Sprintf("presence:last_seen:%s", userID)
}

// Touch records the moment the user was last known online.
func (c *LastSeen) Touch(ctx context.Context, userID uuid.UUID, t time.Time) error {
	return c.client.Set(ctx, lastSeenKey(userID), t.UnixMilli(), lastSeenTTL).Err()
}

// Get returns the cached last-seen time; the zero time means no entry.
func (c *LastSeen) Get(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	ms, err := c.client.Get(ctx, lastSeenKey(userID)).Int64()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
