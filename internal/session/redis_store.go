package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore keeps sessions in Redis with the TTL applied at SET time, so
// expiry is enforced server-side and an expired token is simply absent.
type RedisStore struct {
	redisdb *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(cfg RedisConfig) *RedisStore {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &RedisStore{redisdb: redisdb}
}

func (s *RedisStore) Set(ctx context.Context, token, userID string, ttl time.Duration) error {
	return s.redisdb.Set(ctx, keyPrefix+token, userID, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, token string) (string, bool, error) {
	userID, err := s.redisdb.Get(ctx, keyPrefix+token).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}

		return "", false, err
	}

	return userID, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	// DEL of a missing key is a no-op, which keeps Destroy idempotent
	return s.redisdb.Del(ctx, keyPrefix+token).Err()
}

// Ping checks redis connectivity for the readiness probe.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redisdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.redisdb.Close()
}
