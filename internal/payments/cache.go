package payments

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionTTL keeps cached sessions below Stripe's 24h idempotency window.
const SessionTTL = 23 * time.Hour

const sessionKeyPrefix = "checkout:session:"

// RedisSessionCache stores issued checkout sessions in Redis.
type RedisSessionCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisSessionCache creates a cache using client.
func NewRedisSessionCache(client redis.UniversalClient) *RedisSessionCache {
	return &RedisSessionCache{client: client, ttl: SessionTTL}
}

// Get implements SessionCache.
func (c *RedisSessionCache) Get(ctx context.Context, key string) (*CheckoutSession, bool, error) {
	raw, err := c.client.Get(ctx, sessionKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get checkout session %s: %w", key, err)
	}

	var session CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, false, fmt.Errorf("decode checkout session %s: %w", key, err)
	}
	return &session, true, nil
}

// Put implements SessionCache.
func (c *RedisSessionCache) Put(ctx context.Context, key string, session *CheckoutSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode checkout session %s: %w", key, err)
	}
	if err := c.client.Set(ctx, sessionKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set checkout session %s: %w", key, err)
	}
	return nil
}

// NewRedisClient opens a client for redisURL. tlsInsecure skips certificate
// verification for managed instances with self-signed certificates.
func NewRedisClient(redisURL string, tlsInsecure bool) (*redis.Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		opt.TLSConfig = clone
	} else if tlsInsecure {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return redis.NewClient(opt), nil
}
