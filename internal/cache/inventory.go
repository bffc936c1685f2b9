package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	CampgroundKeyPrefix = "campground:%s"
	UserKeyPrefix       = "user:%s"
)

const (
	CampgroundTTL = 10 * time.Minute
	UserTTL       = 5 * time.Minute
)

func CampgroundKey(slug string) string {
	return fmt.Sprintf(CampgroundKeyPrefix, slug)
}

func UserKey(userID string) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// Aside implements the cache-aside pattern: serve dest from Redis when the
// key is present, otherwise run fetch and store the result for ttl. Cache
// failures degrade to the fetch path.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if client != nil {
		raw, err := client.Get(ctx, key).Bytes()
		if err == nil {
			if unmarshalErr := json.Unmarshal(raw, dest); unmarshalErr == nil {
				return nil
			}
			client.Del(ctx, key)
		}
	}

	if err := fetch(); err != nil {
		return err
	}

	if client != nil {
		if raw, err := json.Marshal(dest); err == nil {
			client.Set(ctx, key, raw, ttl)
		}
	}
	return nil
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateCampground(ctx context.Context, slug string) {
	Invalidate(ctx, CampgroundKey(slug))
}

func InvalidateUser(ctx context.Context, userID string) {
	Invalidate(ctx, UserKey(userID))
}
