package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"backoffice/internal/core"
	"backoffice/internal/sheets"
)

// DefaultLoadTimeout bounds a shared section load.
const DefaultLoadTimeout = 10 * time.Second

// FigureCache fronts a figure reader with a per-section LRU. Concurrent
// misses for one section share a single load.
type FigureCache struct {
	source      sheets.FigureReader
	lru         *LRUCache[[]core.Figure]
	group       singleflight.Group
	loadTimeout time.Duration

	mu          sync.Mutex
	generations map[core.Section]uint64
}

var _ sheets.FigureReader = (*FigureCache)(nil)

func NewFigureCache(source sheets.FigureReader, ttl time.Duration) *FigureCache {
	return &FigureCache{
		source:      source,
		lru:         NewLRUCache[[]core.Figure](len(core.Sections), ttl),
		loadTimeout: DefaultLoadTimeout,
		generations: make(map[core.Section]uint64),
	}
}

// ListFigures returns cached figures or loads them from the source.
// Failed loads are not cached.
func (c *FigureCache) ListFigures(ctx context.Context, section core.Section) ([]core.Figure, error) {
	figs, _, err := c.Load(ctx, section)
	return figs, err
}

// Load is ListFigures that also reports whether the value came from the cache.
//
// The shared load is detached from the caller: a caller that gives up only
// stops waiting, the others still get the result. A load that overlaps an
// Invalidate of its section is returned but not cached.
func (c *FigureCache) Load(ctx context.Context, section core.Section) ([]core.Figure, bool, error) {
	key := section.String()
	if figs, ok := c.lru.Get(key); ok {
		return figs, true, nil
	}
	gen := c.generation(section)
	flight := fmt.Sprintf("%s@%d", key, gen)

	ch := c.group.DoChan(flight, func() (any, error) {
		if figs, ok := c.lru.Get(key); ok {
			return figs, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		figs, err := c.source.ListFigures(loadCtx, section)
		if err != nil {
			return nil, err
		}
		c.storeIfCurrent(section, gen, figs)
		return figs, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]core.Figure), false, nil
	}
}

// Invalidate drops the given sections, or everything when none are given.
func (c *FigureCache) Invalidate(sections ...core.Section) {
	if len(sections) == 0 {
		sections = core.Sections
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range sections {
		c.generations[s]++
		c.lru.Delete(s.String())
	}
}

func (c *FigureCache) generation(section core.Section) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[section]
}

func (c *FigureCache) storeIfCurrent(section core.Section, gen uint64, figs []core.Figure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[section] == gen {
		c.lru.Set(section.String(), figs)
	}
}

func (c *FigureCache) CleanExpired() int {
	return c.lru.CleanExpired()
}
