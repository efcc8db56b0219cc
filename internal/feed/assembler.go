// Package feed assembles the "posts near me" payload: a radius query against
// the geo index, one batched hydration from the stores, engagement counts and
// a district label for the query point.
package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/nearby/backend/internal/geo"
	"github.com/anonto42/nearby/backend/internal/geocode"
	"github.com/anonto42/nearby/backend/internal/location"
	"github.com/anonto42/nearby/backend/internal/metrics"
	"github.com/anonto42/nearby/backend/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultRadiusKm is the discovery radius used when none is configured.
const DefaultRadiusKm = 100.0

const (
	MessageNoPosts = "There are no posts near you"
	MessagePosts   = "Posts fetched successfully"
)

var (
	ErrInvalidLocation = models.ErrInvalidLocation
	// ErrStorageUnavailable wraps post, user, reaction or comment store failures.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrIndexUnavailable   = geo.ErrIndexUnavailable
)

// Gate is the location update gate as seen by the feed.
type Gate interface {
	Submit(ctx context.Context, userID uint, coord models.Coordinate) (location.Decision, error)
}

// Deps are the collaborators an Assembler reads through.
type Deps struct {
	Posts     PostStore
	Users     UserStore
	Reactions ReactionStore
	Comments  CommentStore
	Index     geo.Index
	Gate      Gate
	// Geocoder may be nil, in which case labels are always empty.
	Geocoder geocode.Geocoder
}

type Assembler struct {
	Deps
	radiusKm float64
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
}

func NewAssembler(deps Deps, radiusKm float64, logger logrus.FieldLogger, m *metrics.Metrics) *Assembler {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return &Assembler{Deps: deps, radiusKm: radiusKm, logger: logger, metrics: m}
}

// RadiusKm reports the configured discovery radius.
func (a *Assembler) RadiusKm() float64 { return a.radiusKm }

// Nearby returns the posts within the discovery radius of rawLocation,
// newest first, as seen by viewerID.
func (a *Assembler) Nearby(ctx context.Context, viewerID uint, rawLocation string) (*models.FeedResponse, string, error) {
	coord, err := models.ParseLocation(rawLocation)
	if err != nil {
		a.metrics.FeedServed("invalid", 0)
		return nil, "", err
	}
	if !a.Index.ValidCoordinate(coord.Longitude, coord.Latitude) {
		a.metrics.FeedServed("invalid", 0)
		return nil, "", fmt.Errorf("%w: %s is outside the range the geo index supports", models.ErrInvalidLocation, coord.String())
	}
	log := a.logger.WithFields(logrus.Fields{"user_id": viewerID, "location": coord.String()})

	// The gate only throttles the stored profile location; the query below
	// always uses the coordinate from this request.
	if viewerID != 0 && a.Gate != nil {
		if _, err := a.Gate.Submit(ctx, viewerID, coord); err != nil {
			log.WithError(err).Warn("location update failed")
		}
	}

	labelCh := make(chan string, 1)
	go func() { labelCh <- a.Label(ctx, coord) }()

	resp, err := a.nearby(ctx, viewerID, coord)
	label := <-labelCh
	if err != nil {
		outcome := "storage_error"
		switch {
		case ctx.Err() != nil:
			outcome = "cancelled"
		case errors.Is(err, models.ErrInvalidLocation):
			outcome = "invalid"
		case errors.Is(err, geo.ErrIndexUnavailable):
			outcome = "index_error"
		}
		a.metrics.FeedServed(outcome, 0)
		log.WithError(err).Error("failed to assemble feed")
		return nil, "", err
	}
	resp.DistrictState = label

	a.metrics.FeedServed("ok", len(resp.Posts))
	if len(resp.Posts) == 0 {
		return resp, MessageNoPosts, nil
	}
	return resp, MessagePosts, nil
}

func (a *Assembler) nearby(ctx context.Context, viewerID uint, coord models.Coordinate) (*models.FeedResponse, error) {
	resp := &models.FeedResponse{Location: coord.String(), Posts: []models.FeedPost{}}

	hits, err := a.Index.Query(ctx, coord.Longitude, coord.Latitude, a.radiusKm)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		switch {
		case errors.Is(err, geo.ErrInvalidCoordinate):
			return nil, fmt.Errorf("%w: %v", models.ErrInvalidLocation, err)
		case errors.Is(err, geo.ErrIndexUnavailable):
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", geo.ErrIndexUnavailable, err)
	}
	if len(hits) == 0 {
		return resp, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.PostID
	}
	posts, err := a.Posts.GetPostsByIDs(ctx, ids)
	if err != nil {
		return nil, storageErr(ctx, "load posts", err)
	}
	resp.Posts, err = a.Hydrate(ctx, viewerID, posts)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Label resolves the district label for coord. Failures are logged and give
// an empty label.
func (a *Assembler) Label(ctx context.Context, coord models.Coordinate) string {
	if a.Geocoder == nil {
		return ""
	}
	place, err := a.Geocoder.Resolve(ctx, coord.Latitude, coord.Longitude)
	if err != nil {
		a.metrics.GeocoderLookup("error")
		a.logger.WithError(err).WithField("location", coord.String()).Warn("reverse geocoding failed")
		return ""
	}
	label := strings.TrimSpace(place.Label())
	if label == "" {
		a.metrics.GeocoderLookup("empty")
	} else {
		a.metrics.GeocoderLookup("ok")
	}
	return label
}

// UpdateLocation runs rawLocation through the gate and resolves its label.
func (a *Assembler) UpdateLocation(ctx context.Context, userID uint, rawLocation string) (*models.LocationResponse, error) {
	coord, err := models.ParseLocation(rawLocation)
	if err != nil {
		return nil, err
	}
	d, err := a.Gate.Submit(ctx, userID, coord)
	if err != nil {
		if errors.Is(err, location.ErrUserNotFound) {
			return nil, err
		}
		return nil, storageErr(ctx, "update location", err)
	}
	return &models.LocationResponse{
		Location:      coord.String(),
		DistrictState: a.Label(ctx, coord),
		Updated:       d.Updated,
	}, nil
}

func storageErr(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}
