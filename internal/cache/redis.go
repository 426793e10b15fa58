// Package cache provides an optional Redis-backed cache for secondary
// lookups. When Redis is unavailable every operation degrades to a direct
// fetch; the client never depends on the cache being there.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// InitRedis initializes the Redis client with the given address.
func InitRedis(addr string) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			log.Printf("Redis connection warning: invalid REDIS_URL %q: %v (continuing without cache)", addr, err)
			client = nil
			return
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection warning: %v (continuing without cache)", err)
		client = nil
	}
}

// SetClient installs an existing client; tests use this with miniredis.
func SetClient(c *redis.Client) {
	client = c
}

// GetClient returns the current Redis client instance, nil when caching
// is disabled.
func GetClient() *redis.Client {
	return client
}

// Aside implements cache-aside: on a hit, dest is filled from the cached
// JSON; on a miss (or with no cache configured) fetch runs and its result
// in dest is stored best-effort under key for ttl.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetch func() error) error {
	if client != nil {
		cached, err := client.Get(ctx, key).Result()
		if err == nil {
			if unmarshalErr := json.Unmarshal([]byte(cached), dest); unmarshalErr == nil {
				return nil
			}
			// Corrupt entry: drop it and fall through to the fetch.
			client.Del(ctx, key)
		}
	}

	if err := fetch(); err != nil {
		return err
	}

	if client != nil {
		if encoded, err := json.Marshal(dest); err == nil {
			client.Set(ctx, key, encoded, ttl)
		}
	}
	return nil
}

// Invalidate removes a key; a no-op without a configured cache.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}
