package plates

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/observability"
)

// CachedSource wraps a PlateSource and keeps the first successful result
// for the life of the process. Failures are not cached, so a later request
// retries. Concurrent callers share a single in-flight fetch, which runs
// detached from any one caller's cancellation and is bounded by the inner
// source's own timeout.
type CachedSource struct {
	inner   domain.PlateSource
	metrics *observability.Metrics
	group   singleflight.Group

	mu         sync.RWMutex
	boundaries []domain.PlateBoundary
	loaded     bool
}

// NewCachedSource creates a cache decorator around a plate source.
func NewCachedSource(inner domain.PlateSource, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{inner: inner, metrics: metrics}
}

func (c *CachedSource) PlateBoundaries(ctx context.Context) ([]domain.PlateBoundary, error) {
	if boundaries, ok := c.cached(); ok {
		c.metrics.PlatesCache.WithLabelValues("hit").Inc()
		return boundaries, nil
	}
	c.metrics.PlatesCache.WithLabelValues("miss").Inc()

	ch := c.group.DoChan("boundaries", func() (any, error) {
		if boundaries, ok := c.cached(); ok {
			return boundaries, nil
		}
		boundaries, err := c.inner.PlateBoundaries(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.boundaries, c.loaded = boundaries, true
		c.mu.Unlock()
		return boundaries, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.PlateBoundary), nil
	}
}

func (c *CachedSource) cached() ([]domain.PlateBoundary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.boundaries, c.loaded
}
