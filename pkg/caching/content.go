package caching

import (
	"fmt"
	"time"

	"github.com/mykube-run/krefresh/pkg/log"
	"github.com/patrickmn/go-cache"
)

// DefaultContentExpiration is how long a last known config content is kept
var DefaultContentExpiration = time.Hour * 6

// FetchFunc retrieves the newest content of key
type FetchFunc func(key string) (string, error)

// ContentCache keeps the last successfully fetched content of each config, so that a
// refresh can go on with a known copy while the config center is unreachable.
type ContentCache struct {
	c  *cache.Cache
	lg log.Logger
}

// NewContentCache creates a ContentCache, exp <= 0 means DefaultContentExpiration
func NewContentCache(exp time.Duration, lg log.Logger) *ContentCache {
	if exp <= 0 {
		exp = DefaultContentExpiration
	}
	if lg == nil {
		lg = log.New("krefresh.caching")
	}
	return &ContentCache{
		c:  cache.New(exp, time.Minute),
		lg: lg,
	}
}

// Fetch always calls fn first. On success the content is cached and returned, on failure
// the cached copy is returned instead; the error is only returned when there is no copy.
func (c *ContentCache) Fetch(key string, fn FetchFunc) (string, error) {
	v, err := fn(key)
	if err == nil {
		c.c.SetDefault(key, v)
		return v, nil
	}

	cached, hit := c.c.Get(key)
	if !hit {
		return "", fmt.Errorf("error fetching %v: %w", key, err)
	}
	c.lg.Warn(fmt.Sprintf("error fetching %v, using last known content: %v", key, err))
	return cached.(string), nil
}
