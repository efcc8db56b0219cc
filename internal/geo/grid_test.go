package geo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridIndexFindsExactPoint(t *testing.T) {
	ctx := context.Background()
	points := []struct{ lon, lat float64 }{
		{77.5946, 12.9716},
		{-0.1276, 51.5072},
		{179.9999, -45.0},
		{-180, 0},
		{0, 89.9},
		{151.2093, -33.8688},
	}
	for i, p := range points {
		g := NewGridIndex()
		id := fmt.Sprintf("post-%d", i)
		require.NoError(t, g.Insert(ctx, id, p.lon, p.lat))
		for _, r := range []float64{0, 0.5, 10, 100, 5000} {
			hits, err := g.Query(ctx, p.lon, p.lat, r)
			require.NoError(t, err)
			require.NotEmpty(t, hits, "radius %v at %v", r, p)
			assert.Equal(t, id, hits[0].PostID)
			assert.Zero(t, hits[0].DistanceKm)
		}
	}
}

func TestGridIndexRadiusAndOrder(t *testing.T) {
	ctx := context.Background()
	g := NewGridIndex()
	// Bengaluru center, a close neighbor, Mysuru (~125 km), Chennai (~290 km).
	require.NoError(t, g.Insert(ctx, "near", 77.5950, 12.9720))
	require.NoError(t, g.Insert(ctx, "center", 77.5946, 12.9716))
	require.NoError(t, g.Insert(ctx, "mysuru", 76.6394, 12.2958))
	require.NoError(t, g.Insert(ctx, "chennai", 80.2707, 13.0827))

	hits, err := g.Query(ctx, 77.5946, 12.9716, 100)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "center", hits[0].PostID)
	assert.Equal(t, "near", hits[1].PostID)

	hits, err = g.Query(ctx, 77.5946, 12.9716, 300)
	require.NoError(t, err)
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.PostID)
	}
	assert.Equal(t, []string{"center", "near", "mysuru", "chennai"}, ids)
}

func TestGridIndexMatchesLinearScan(t *testing.T) {
	ctx := context.Background()
	g := NewGridIndex()
	type pt struct {
		id       string
		lon, lat float64
	}
	var pts []pt
	for i := 0; i < 40; i++ {
		for j := 0; j < 40; j++ {
			p := pt{id: fmt.Sprintf("%d-%d", i, j), lon: 76 + float64(i)*0.08, lat: 12 + float64(j)*0.06}
			pts = append(pts, p)
			require.NoError(t, g.Insert(ctx, p.id, p.lon, p.lat))
		}
	}
	center := pt{lon: 77.5946, lat: 12.9716}
	for _, r := range []float64{1, 25, 100, 180} {
		want := 0
		for _, p := range pts {
			if DistanceKm(center.lon, center.lat, p.lon, p.lat) <= r {
				want++
			}
		}
		hits, err := g.Query(ctx, center.lon, center.lat, r)
		require.NoError(t, err)
		assert.Len(t, hits, want, "radius %v", r)
		for i := 1; i < len(hits); i++ {
			assert.LessOrEqual(t, hits[i-1].DistanceKm, hits[i].DistanceKm)
		}
	}
}

func TestGridIndexInsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	g := NewGridIndex()
	require.NoError(t, g.Insert(ctx, "p1", 77.5946, 12.9716))
	require.NoError(t, g.Insert(ctx, "p1", 77.5946, 12.9716))
	assert.Equal(t, 1, g.Len())

	// Overwrite moves the point.
	require.NoError(t, g.Insert(ctx, "p1", -0.1276, 51.5072))
	assert.Equal(t, 1, g.Len())
	hits, err := g.Query(ctx, 77.5946, 12.9716, 100)
	require.NoError(t, err)
	assert.Empty(t, hits)
	hits, err = g.Query(ctx, -0.1276, 51.5072, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestGridIndexRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	g := NewGridIndex()
	assert.True(t, errors.Is(g.Insert(ctx, "p", 181, 0), ErrInvalidCoordinate))
	assert.True(t, errors.Is(g.Insert(ctx, "p", 0, -90.5), ErrInvalidCoordinate))
	_, err := g.Query(ctx, 0, 91, 10)
	assert.True(t, errors.Is(err, ErrInvalidCoordinate))
	_, err = g.Query(ctx, 0, 0, -1)
	assert.True(t, errors.Is(err, ErrInvalidRadius))
	assert.Zero(t, g.Len())
}

func TestGridIndexEmptyQuery(t *testing.T) {
	hits, err := NewGridIndex().Query(context.Background(), 77.59, 12.97, 100)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestGridIndexHugeRadiusScans(t *testing.T) {
	ctx := context.Background()
	g := NewGridIndex()
	require.NoError(t, g.Insert(ctx, "london", -0.1276, 51.5072))
	require.NoError(t, g.Insert(ctx, "sydney", 151.2093, -33.8688))
	hits, err := g.Query(ctx, 77.59, 12.97, 20000)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestGridIndexCancelledQuery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGridIndex().Query(ctx, 0, 0, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDistanceKm(t *testing.T) {
	assert.Zero(t, DistanceKm(10, 10, 10, 10))
	// London to Paris is roughly 344 km.
	assert.InDelta(t, 344, DistanceKm(-0.1276, 51.5072, 2.3522, 48.8566), 3)
}
