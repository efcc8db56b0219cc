// Package geo holds the spatial index that maps post identifiers to points
// and answers radius queries around a center point.
package geo

import (
	"context"
	"errors"
	"math"
	"sort"
)

var (
	// ErrInvalidCoordinate is returned when a latitude or longitude is out of range or not finite.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrInvalidRadius is returned for negative or non-finite radii.
	ErrInvalidRadius = errors.New("invalid radius")
	// ErrIndexUnavailable wraps failures of the backing index.
	ErrIndexUnavailable = errors.New("geo index unavailable")
)

// Hit is a single radius query result.
type Hit struct {
	PostID     string
	Longitude  float64
	Latitude   float64
	DistanceKm float64
}

// Index maps post identifiers to points. Insert is idempotent by postID: a
// second insert of the same id overwrites the first. Query returns hits
// nearest first; an empty slice is a valid result. ValidCoordinate reports
// whether the backend can store and query around a point, which may be a
// narrower range than the globe.
type Index interface {
	Insert(ctx context.Context, postID string, longitude, latitude float64) error
	Query(ctx context.Context, longitude, latitude, radiusKm float64) ([]Hit, error)
	ValidCoordinate(longitude, latitude float64) bool
}

// IsValidLonLat validates geographic coordinates.
func IsValidLonLat(lon, lat float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func validRadius(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0) && r >= 0
}

// sortHits orders by distance, breaking ties on id so results are stable.
func sortHits(hits []Hit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceKm != hits[j].DistanceKm {
			return hits[i].DistanceKm < hits[j].DistanceKm
		}
		return hits[i].PostID < hits[j].PostID
	})
}
