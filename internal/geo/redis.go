package geo

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis stores geo members as 52-bit geohashes and rejects latitudes past
// the Web Mercator limit.
const redisMaxLatitude = 85.05112878

// Points come back from their geohash slightly moved, so a radius below this
// would miss a member stored at the query point itself.
const redisMinRadiusKm = 0.001

// DefaultRedisKey is the sorted set holding post locations.
const DefaultRedisKey = "posts"

// RedisIndex keeps post locations in a Redis GEO sorted set so every API
// instance shares one index.
type RedisIndex struct {
	rdb redis.Cmdable
	key string
}

// NewRedisIndex creates a RedisIndex over key.
func NewRedisIndex(rdb redis.Cmdable, key string) *RedisIndex {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisIndex{rdb: rdb, key: key}
}

// ValidCoordinate reports whether Redis GEO accepts the point.
func (r *RedisIndex) ValidCoordinate(lon, lat float64) bool {
	return IsValidLonLat(lon, lat) && lat >= -redisMaxLatitude && lat <= redisMaxLatitude
}

// Insert adds or moves postID. GEOADD on an existing member replaces its position.
func (r *RedisIndex) Insert(ctx context.Context, postID string, longitude, latitude float64) error {
	if !r.ValidCoordinate(longitude, latitude) {
		return fmt.Errorf("%w: lon=%v lat=%v", ErrInvalidCoordinate, longitude, latitude)
	}
	err := r.rdb.GeoAdd(ctx, r.key, &redis.GeoLocation{
		Name:      postID,
		Longitude: longitude,
		Latitude:  latitude,
	}).Err()
	if err != nil {
		return fmt.Errorf("%w: geoadd %s: %v", ErrIndexUnavailable, postID, err)
	}
	return nil
}

// Query returns members within radiusKm of the center, nearest first.
func (r *RedisIndex) Query(ctx context.Context, longitude, latitude, radiusKm float64) ([]Hit, error) {
	if !r.ValidCoordinate(longitude, latitude) {
		return nil, fmt.Errorf("%w: lon=%v lat=%v", ErrInvalidCoordinate, longitude, latitude)
	}
	if !validRadius(radiusKm) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRadius, radiusKm)
	}
	if radiusKm < redisMinRadiusKm {
		radiusKm = redisMinRadiusKm
	}
	locs, err := r.rdb.GeoRadius(ctx, r.key, longitude, latitude, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: georadius: %v", ErrIndexUnavailable, err)
	}

	hits := make([]Hit, 0, len(locs))
	for _, l := range locs {
		hits = append(hits, Hit{
			PostID:     l.Name,
			Longitude:  l.Longitude,
			Latitude:   l.Latitude,
			DistanceKm: l.Dist,
		})
	}
	sortHits(hits)
	return hits, nil
}
