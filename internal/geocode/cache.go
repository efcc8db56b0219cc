package geocode

import (
	"context"
	"sync"
	"time"

	"github.com/uber/h3-go/v4"
	"golang.org/x/sync/singleflight"
)

const (
	// Resolution 7 cells are roughly 5 km² so users polling from the same
	// neighborhood share one lookup.
	cacheResolution   = 7
	defaultCacheTTL   = 6 * time.Hour
	defaultMaxEntries = 10000
)

type cacheEntry struct {
	place     Place
	expiresAt time.Time
}

// Cache memoizes a Geocoder per H3 cell and collapses concurrent lookups for
// the same cell into one upstream call. Failures are not cached.
type Cache struct {
	next       Geocoder
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu    sync.Mutex
	items map[h3.Cell]cacheEntry
	sf    singleflight.Group
}

// NewCache wraps next. Zero ttl or maxEntries select defaults.
func NewCache(next Geocoder, ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Cache{
		next:       next,
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		items:      make(map[h3.Cell]cacheEntry),
	}
}

// Resolve returns a cached Place for the point's cell or asks the wrapped geocoder.
func (c *Cache) Resolve(ctx context.Context, lat, lon float64) (Place, error) {
	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), cacheResolution)
	if err != nil {
		return c.next.Resolve(ctx, lat, lon)
	}

	c.mu.Lock()
	if e, ok := c.items[cell]; ok && c.now().Before(e.expiresAt) {
		c.mu.Unlock()
		return e.place, nil
	}
	c.mu.Unlock()

	// The lookup is shared with every caller waiting on this cell, so it
	// must not end when the caller that started it goes away.
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.sf.Do(cell.String(), func() (interface{}, error) {
		place, err := c.next.Resolve(shared, lat, lon)
		if err != nil {
			return Place{}, err
		}
		c.store(cell, place)
		return place, nil
	})
	if err != nil {
		return Place{}, err
	}
	return v.(Place), nil
}

func (c *Cache) store(cell h3.Cell, place Place) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.items) >= c.maxEntries {
		for k, e := range c.items {
			if !now.Before(e.expiresAt) {
				delete(c.items, k)
			}
		}
	}
	if len(c.items) >= c.maxEntries {
		for k := range c.items {
			delete(c.items, k)
			break
		}
	}
	c.items[cell] = cacheEntry{place: place, expiresAt: now.Add(c.ttl)}
}
