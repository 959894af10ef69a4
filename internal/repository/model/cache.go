package model

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meterforecast/backend/internal/domain"
)

// CachedRepository keeps resolved artifacts in memory, keyed by meter id.
//
// Concurrent misses for the same meter share one load. Failed loads are not
// cached, so a meter whose artifact appears later resolves on the next call.
type CachedRepository struct {
	next        domain.ModelRepository
	loadTimeout time.Duration
	mu          sync.RWMutex
	models      map[string]domain.Forecaster
	flight      singleflight.Group

	hits   int64
	misses int64
}

// DefaultLoadTimeout bounds a shared artifact load
const DefaultLoadTimeout = 2 * time.Minute

// NewCachedRepository wraps next with an in-memory cache
func NewCachedRepository(next domain.ModelRepository) *CachedRepository {
	return &CachedRepository{
		next:        next,
		loadTimeout: DefaultLoadTimeout,
		models:      make(map[string]domain.Forecaster),
	}
}

// Resolve returns the cached artifact or loads it through the wrapped repository
func (c *CachedRepository) Resolve(ctx context.Context, meterID string) (domain.Forecaster, error) {
	c.mu.RLock()
	m, ok := c.models[meterID]
	c.mu.RUnlock()
	if ok {
		atomic.AddInt64(&c.hits, 1)
		cacheLookups.WithLabelValues("hit").Inc()
		return m, nil
	}
	atomic.AddInt64(&c.misses, 1)
	cacheLookups.WithLabelValues("miss").Inc()

	// The load outlives any single caller; each caller waits on its own context.
	ch := c.flight.DoChan(meterID, func() (interface{}, error) {
		c.mu.RLock()
		m, ok := c.models[meterID]
		c.mu.RUnlock()
		if ok {
			return m, nil
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		loaded, err := c.next.Resolve(loadCtx, meterID)
		if err != nil {
			modelLoads.WithLabelValues("error").Inc()
			return nil, err
		}
		modelLoads.WithLabelValues("ok").Inc()

		c.mu.Lock()
		c.models[meterID] = loaded
		c.mu.Unlock()
		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(domain.Forecaster), nil
	}
}

// Invalidate drops a meter's artifact so the next Resolve reloads it
func (c *CachedRepository) Invalidate(meterID string) {
	c.mu.Lock()
	delete(c.models, meterID)
	c.mu.Unlock()
}

// Size returns the number of cached artifacts
func (c *CachedRepository) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// GetMetrics returns hit and miss counts
func (c *CachedRepository) GetMetrics() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}
