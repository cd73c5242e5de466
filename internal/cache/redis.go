// Package cache holds the Redis-backed token denylist and rate limiter.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medibook-server/internal/config"

	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const (
	revokedPrefix   = "revoked_token:"
	rateLimitPrefix = "rate_limit:"
)

// NewRedisClient connects to Redis, retrying the initial ping a few times.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	const maxRetries = 3
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		log.Warnf("failed to connect to Redis (attempt %d/%d): %v", i+1, maxRetries, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	client.Close()
	return nil, fmt.Errorf("redis unreachable at %s: %w", cfg.Addr, err)
}

// Store wraps a Redis client behind a circuit breaker.
type Store struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client, cb: config.NewCircuitBreaker("Redis")}
}

// Ping reports whether Redis answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// RevokeToken denylists a token ID until ttl elapses.
func (s *Store) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.Set(ctx, revokedPrefix+tokenID, 1, ttl).Err()
	})
	return err
}

// IsTokenRevoked reports whether a token ID was denylisted.
func (s *Store) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		return s.client.Exists(ctx, revokedPrefix+tokenID).Result()
	})
	if err != nil {
		return false, err
	}
	return res.(int64) > 0, nil
}

// Allow counts a hit against key in a fixed window and reports whether the
// caller is still within limit. The window is (re)armed whenever the counter
// has no expiry, so a failed EXPIRE is repaired by the next hit.
func (s *Store) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	res, err := s.cb.Execute(func() (interface{}, error) {
		k := rateLimitPrefix + key
		var (
			incr *redis.IntCmd
			ttl  *redis.DurationCmd
		)
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, k)
			ttl = pipe.TTL(ctx, k)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if needsExpiry(ttl.Val()) {
			if err := s.client.Expire(ctx, k, window).Err(); err != nil {
				return nil, err
			}
		}
		return incr.Val(), nil
	})
	if err != nil {
		return false, err
	}
	return res.(int64) <= int64(limit), nil
}

// needsExpiry reports whether a TTL reply means the key never expires.
func needsExpiry(ttl time.Duration) bool {
	return ttl < 0
}

// IsUnavailable reports whether err came from an open breaker rather than Redis itself.
func IsUnavailable(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
