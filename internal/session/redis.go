package session

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisTokenKey = "jaytalk:session_token"

// RedisStore keeps the token in Redis for deployments where several
// processes share one session (headless bots, CI harnesses).
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to addr, which may be a bare host:port or a
// redis:// URL.
func NewRedisStore(addr string) (*RedisStore, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

// NewRedisStoreFromClient wraps an existing client; tests use this with
// miniredis.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, token string) error {
	return s.client.Set(ctx, redisTokenKey, token, 0).Err()
}

func (s *RedisStore) Read(ctx context.Context) string {
	val, err := s.client.Get(ctx, redisTokenKey).Result()
	if err != nil {
		// redis.Nil and a dead server both read as "no session".
		return ""
	}
	return val
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, redisTokenKey).Err()
}
