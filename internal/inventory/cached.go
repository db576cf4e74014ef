package inventory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const availabilityKey = "availability"

// CachedReader wraps a Reader with a short-TTL cache so the eligibility
// checks fired on every propose do not hammer the database. Invalidate after
// any mutation that changes occupancy.
type CachedReader struct {
	inner Reader
	cache *gocache.Cache
	ttl   time.Duration
}

func NewCachedReader(inner Reader, ttl time.Duration) *CachedReader {
	return &CachedReader{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (c *CachedReader) Available(ctx context.Context) (Availability, error) {
	if cached, found := c.cache.Get(availabilityKey); found {
		return cached.(Availability).Clone(), nil
	}
	avail, err := c.inner.Available(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Set(availabilityKey, avail.Clone(), c.ttl)
	return avail, nil
}

func (c *CachedReader) Invalidate() {
	c.cache.Delete(availabilityKey)
}
