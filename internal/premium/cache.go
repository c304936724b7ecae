package premium

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// DefaultTTL is how long a fetched status is reused.
const DefaultTTL = 5 * time.Minute

// Fetcher returns the current premium status.
type Fetcher interface {
	FetchStatus(ctx context.Context) (*StatusResponse, error)
}

// Cache remembers the last fetched status for a TTL. Build one per process
// and share it.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time

	mu        sync.Mutex
	value     *StatusResponse
	fetchedAt time.Time
}

// NewCache wraps fetcher. A nil fetcher means premium is not configured and
// everything is unlocked. now defaults to time.Now.
func NewCache(fetcher Fetcher, ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{fetcher: fetcher, ttl: ttl, now: now}
}

// Status returns the cached status, fetching when the cache is empty or
// stale. Failed fetches are not cached.
func (c *Cache) Status(ctx context.Context) (*StatusResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.value != nil && now.Sub(c.fetchedAt) < c.ttl {
		return c.value, nil
	}
	v, err := c.fetcher.FetchStatus(ctx)
	if err != nil {
		return nil, err
	}
	c.value, c.fetchedAt = v, now
	return v, nil
}

// IsPremium reports whether premium features are unlocked. Any failure to
// learn the status counts as not premium.
func (c *Cache) IsPremium(ctx context.Context) bool {
	if c.fetcher == nil {
		return true
	}
	s, err := c.Status(ctx)
	if err != nil {
		log.Warnw("checking premium status", "err", err)
		return false
	}
	return s.Active(c.now())
}

// Invalidate drops the cached status.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value, c.fetchedAt = nil, time.Time{}
}

// New builds the cache for statusURL. An empty URL unlocks everything.
func New(statusURL, deviceID string) *Cache {
	if statusURL == "" {
		return NewCache(nil, DefaultTTL, nil)
	}
	return NewCache(NewClient(statusURL, deviceID), DefaultTTL, nil)
}
