package email

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// TokenFetcher obtains a fresh access token and its lifetime.
type TokenFetcher func(ctx context.Context) (token string, ttl time.Duration, err error)

// defaultExpiryMargin refreshes tokens shortly before the issuer expires them.
const defaultExpiryMargin = 2 * time.Minute

// TokenCache holds one access token shared by all senders of a provider.
// Concurrent callers that find no valid token share a single refresh.
type TokenCache struct {
	fetch  TokenFetcher
	margin time.Duration
	now    func() time.Time
	group  singleflight.Group

	mu         sync.Mutex
	token      string
	expiresAt  time.Time
	generation uint64
}

// NewTokenCache creates a cache that refreshes through fetch.
func NewTokenCache(fetch TokenFetcher) *TokenCache {
	return &TokenCache{fetch: fetch, margin: defaultExpiryMargin, now: time.Now}
}

// Token returns the cached token, refreshing it when missing or expired.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && c.now().Before(c.expiresAt) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	generation := c.generation
	c.mu.Unlock()

	v, err, _ := c.group.Do("token", func() (any, error) {
		c.mu.Lock()
		if c.token != "" && c.now().Before(c.expiresAt) {
			token := c.token
			c.mu.Unlock()
			return token, nil
		}
		c.mu.Unlock()

		// a refresh can outlive the caller that started it
		token, ttl, err := c.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generation == generation {
			c.token = token
			c.expiresAt = c.now().Add(ttl - c.margin)
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token. A refresh already in flight when
// Invalidate is called is not stored.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.generation++
}
