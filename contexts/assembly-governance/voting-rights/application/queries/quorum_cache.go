package queries

import (
	"context"
	"strconv"
	"sync"
	"time"

	"assembly/contexts/assembly-governance/voting-rights/domain/services"
	"assembly/contexts/assembly-governance/voting-rights/ports"

	"golang.org/x/sync/singleflight"
)

type quorumEntry struct {
	value     services.Quorum
	expiresAt time.Time
}

// QuorumCache is a transient read-through cache. Concurrent misses for one
// assembly share a single load, and Invalidate bumps a generation so a load
// that started before the bump is never stored.
type QuorumCache struct {
	ttl   time.Duration
	clock ports.Clock
	group singleflight.Group

	mu          sync.Mutex
	entries     map[string]quorumEntry
	generations map[string]uint64
}

func NewQuorumCache(ttl time.Duration, clock ports.Clock) *QuorumCache {
	return &QuorumCache{
		ttl:         ttl,
		clock:       clock,
		entries:     make(map[string]quorumEntry),
		generations: make(map[string]uint64),
	}
}

func (c *QuorumCache) Get(
	ctx context.Context,
	assemblyID string,
	load func(context.Context) (services.Quorum, error),
) (services.Quorum, error) {
	if c == nil || c.ttl <= 0 {
		return load(ctx)
	}
	c.mu.Lock()
	entry, ok := c.entries[assemblyID]
	generation := c.generations[assemblyID]
	c.mu.Unlock()
	if ok && c.now().Before(entry.expiresAt) {
		return entry.value, nil
	}

	key := assemblyID + "#" + strconv.FormatUint(generation, 10)
	// The shared load outlives any single caller's cancellation.
	results := c.group.DoChan(key, func() (any, error) {
		quorum, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return services.Quorum{}, err
		}
		c.mu.Lock()
		if c.generations[assemblyID] == generation {
			c.entries[assemblyID] = quorumEntry{value: quorum, expiresAt: c.now().Add(c.ttl)}
		}
		c.mu.Unlock()
		return quorum, nil
	})
	select {
	case <-ctx.Done():
		return services.Quorum{}, ctx.Err()
	case result := <-results:
		if result.Err != nil {
			return services.Quorum{}, result.Err
		}
		return result.Val.(services.Quorum), nil
	}
}

func (c *QuorumCache) Invalidate(assemblyID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, assemblyID)
	c.generations[assemblyID]++
}

func (c *QuorumCache) now() time.Time {
	if c.clock == nil {
		return time.Now().UTC()
	}
	return c.clock.Now().UTC()
}
