package geo

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/uber/h3-go/v4"
)

const (
	gridResolution = 5
	// Lower bound on the ground distance covered by one ring step at
	// gridResolution, including pentagon and projection distortion.
	ringStepKm = 6.0
	// Past this many rings a disk enumerates more cells than a scan of a
	// typical index holds, so the query scans instead.
	defaultMaxRing = 200
)

type gridEntry struct {
	cell h3.Cell
	lon  float64
	lat  float64
}

// GridIndex is an in-process index that buckets posts into H3 cells. A query
// enumerates the disk of cells that can contain a point within the radius and
// checks exact distance only for posts in those cells, so cost grows with the
// number of nearby posts rather than with index size. Very large radii fall
// back to a linear scan.
type GridIndex struct {
	mu      sync.RWMutex
	cells   map[h3.Cell]map[string]struct{}
	entries map[string]gridEntry
	maxRing int
}

// NewGridIndex returns an empty GridIndex.
func NewGridIndex() *GridIndex {
	return &GridIndex{
		cells:   make(map[h3.Cell]map[string]struct{}),
		entries: make(map[string]gridEntry),
		maxRing: defaultMaxRing,
	}
}

// ValidCoordinate accepts any finite point on the globe.
func (g *GridIndex) ValidCoordinate(longitude, latitude float64) bool {
	return IsValidLonLat(longitude, latitude)
}

// Insert adds or replaces the point for postID.
func (g *GridIndex) Insert(ctx context.Context, postID string, longitude, latitude float64) error {
	if !IsValidLonLat(longitude, latitude) {
		return fmt.Errorf("%w: lon=%v lat=%v", ErrInvalidCoordinate, longitude, latitude)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cell, err := h3.LatLngToCell(h3.NewLatLng(latitude, longitude), gridResolution)
	if err != nil {
		return fmt.Errorf("%w: cell for %s: %v", ErrIndexUnavailable, postID, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.entries[postID]; ok && old.cell != cell {
		g.removeFromCell(old.cell, postID)
	}
	bucket, ok := g.cells[cell]
	if !ok {
		bucket = make(map[string]struct{})
		g.cells[cell] = bucket
	}
	bucket[postID] = struct{}{}
	g.entries[postID] = gridEntry{cell: cell, lon: longitude, lat: latitude}
	return nil
}

func (g *GridIndex) removeFromCell(cell h3.Cell, postID string) {
	bucket := g.cells[cell]
	delete(bucket, postID)
	if len(bucket) == 0 {
		delete(g.cells, cell)
	}
}

// Query returns the posts within radiusKm of the center, nearest first.
func (g *GridIndex) Query(ctx context.Context, longitude, latitude, radiusKm float64) ([]Hit, error) {
	if !IsValidLonLat(longitude, latitude) {
		return nil, fmt.Errorf("%w: lon=%v lat=%v", ErrInvalidCoordinate, longitude, latitude)
	}
	if !validRadius(radiusKm) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRadius, radiusKm)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	hits := make([]Hit, 0)
	disk, ok := g.disk(longitude, latitude, radiusKm)
	if !ok {
		for id, e := range g.entries {
			hits = g.collect(hits, id, e, longitude, latitude, radiusKm)
		}
	} else {
		for _, cell := range disk {
			for id := range g.cells[cell] {
				hits = g.collect(hits, id, g.entries[id], longitude, latitude, radiusKm)
			}
		}
	}
	sortHits(hits)
	return hits, nil
}

func (g *GridIndex) collect(hits []Hit, id string, e gridEntry, lon, lat, radiusKm float64) []Hit {
	d := DistanceKm(lon, lat, e.lon, e.lat)
	if d > radiusKm {
		return hits
	}
	return append(hits, Hit{PostID: id, Longitude: e.lon, Latitude: e.lat, DistanceKm: d})
}

// disk returns the cells to probe, or false when the caller should scan.
func (g *GridIndex) disk(lon, lat, radiusKm float64) ([]h3.Cell, bool) {
	k := int(math.Ceil(radiusKm/ringStepKm)) + 2
	if k > g.maxRing {
		return nil, false
	}
	origin, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), gridResolution)
	if err != nil {
		return nil, false
	}
	cells, err := h3.GridDisk(origin, k)
	if err != nil {
		return nil, false
	}
	return cells, true
}

// Len reports how many posts are indexed.
func (g *GridIndex) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}
