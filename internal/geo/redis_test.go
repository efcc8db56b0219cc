package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisIndex(t *testing.T) (*RedisIndex, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisIndex(client, "posts"), mr, client
}

func TestRedisIndexInsertAndQuery(t *testing.T) {
	idx, _, client := newRedisIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, "center", 77.5946, 12.9716))
	require.NoError(t, idx.Insert(ctx, "chennai", 80.2707, 13.0827))

	hits, err := idx.Query(ctx, 77.5950, 12.9720, 100)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "center", hits[0].PostID)
	assert.Less(t, hits[0].DistanceKm, 1.0)

	// Re-inserting the same member must not duplicate it.
	require.NoError(t, idx.Insert(ctx, "center", 77.5946, 12.9716))
	n, err := client.ZCard(ctx, "posts").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestRedisIndexEmpty(t *testing.T) {
	idx, _, _ := newRedisIndex(t)
	hits, err := idx.Query(context.Background(), 77.59, 12.97, 100)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRedisIndexInvalidCoordinate(t *testing.T) {
	idx, _, _ := newRedisIndex(t)
	err := idx.Insert(context.Background(), "p", 0, 89)
	assert.True(t, errors.Is(err, ErrInvalidCoordinate))
	_, err = idx.Query(context.Background(), 200, 0, 10)
	assert.True(t, errors.Is(err, ErrInvalidCoordinate))
}

func TestRedisIndexUnavailable(t *testing.T) {
	idx, mr, _ := newRedisIndex(t)
	mr.Close()

	err := idx.Insert(context.Background(), "p", 77.59, 12.97)
	assert.True(t, errors.Is(err, ErrIndexUnavailable))
	_, err = idx.Query(context.Background(), 77.59, 12.97, 100)
	assert.True(t, errors.Is(err, ErrIndexUnavailable))
}

func TestRedisIndexExactPointAtZeroRadius(t *testing.T) {
	idx, _, _ := newRedisIndex(t)
	ctx := context.Background()
	points := map[string][2]float64{
		"bengaluru": {77.5946, 12.9716},
		"london":    {-0.1276, 51.5072},
		"sydney":    {151.2093, -33.8688},
	}
	for id, p := range points {
		require.NoError(t, idx.Insert(ctx, id, p[0], p[1]))
	}
	for id, p := range points {
		hits, err := idx.Query(ctx, p[0], p[1], 0)
		require.NoError(t, err)
		require.Len(t, hits, 1, id)
		assert.Equal(t, id, hits[0].PostID)
	}
}

func TestRedisIndexValidCoordinate(t *testing.T) {
	idx, _, _ := newRedisIndex(t)
	assert.True(t, idx.ValidCoordinate(77.59, 12.97))
	assert.True(t, idx.ValidCoordinate(10, -85.05))
	assert.False(t, idx.ValidCoordinate(10, 86.5))
	assert.False(t, idx.ValidCoordinate(10, -90))
	assert.False(t, idx.ValidCoordinate(181, 0))

	grid := NewGridIndex()
	assert.True(t, grid.ValidCoordinate(10, 86.5))
	assert.True(t, grid.ValidCoordinate(10, -90))
	assert.False(t, grid.ValidCoordinate(181, 0))
}
