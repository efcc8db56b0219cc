// Package geocode resolves coordinates into human-readable district labels.
package geocode

import (
	"context"
	"errors"
)

// ErrNoResult is returned when the provider knows nothing about a point.
var ErrNoResult = errors.New("no geocoding result")

// Place is the administrative area containing a point.
type Place struct {
	District string `json:"district"`
	State    string `json:"state"`
}

// Label renders "district, state", or just the state when there is no district.
func (p Place) Label() string {
	switch {
	case p.District != "" && p.State != "":
		return p.District + ", " + p.State
	case p.District != "":
		return p.District
	default:
		return p.State
	}
}

// Geocoder maps a coordinate to a Place. Implementations bound their own
// latency; on failure they return the zero Place with a non-nil error.
type Geocoder interface {
	Resolve(ctx context.Context, lat, lon float64) (Place, error)
}
