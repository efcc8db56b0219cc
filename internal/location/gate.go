// Package location throttles how often a user's stored location changes.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/nearby/backend/internal/metrics"
	"github.com/anonto42/nearby/backend/internal/models"
	"github.com/anonto42/nearby/backend/internal/repositories"
	"github.com/sirupsen/logrus"
)

// DefaultInterval is the minimum time between two persisted updates.
const DefaultInterval = time.Hour

var ErrUserNotFound = errors.New("user not found")

// Store is the subset of the user repository the gate writes through.
type Store interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	UpdateUserLocation(ctx context.Context, id uint, location string, at, staleBefore time.Time) (bool, error)
}

// Decision is what the gate did with one request.
type Decision struct {
	Updated bool
	// Previous is the stored location before the request.
	Previous string
}

type Gate struct {
	store    Store
	interval time.Duration
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewGate(store Store, interval time.Duration, logger logrus.FieldLogger, m *metrics.Metrics) *Gate {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Gate{
		store:    store,
		interval: interval,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// Submit persists coord as the user's location if the user has none yet or
// the last write is older than the interval. The check and the write are one
// conditional update, so concurrent requests persist at most once.
func (g *Gate) Submit(ctx context.Context, userID uint, coord models.Coordinate) (Decision, error) {
	if !coord.Valid() {
		return Decision{}, models.ErrInvalidLocation
	}
	user, err := g.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Decision{}, ErrUserNotFound
		}
		return Decision{}, fmt.Errorf("load user: %w", err)
	}

	now := g.now().UTC()
	d := Decision{Previous: user.Location}
	if user.LastLocationUpdatedAt != nil && now.Sub(*user.LastLocationUpdatedAt) <= g.interval {
		g.metrics.LocationDecision("throttled")
		return d, nil
	}

	ok, err := g.store.UpdateUserLocation(ctx, userID, coord.String(), now, now.Add(-g.interval))
	if err != nil {
		return Decision{}, fmt.Errorf("update location: %w", err)
	}
	if !ok {
		// Lost the race to another request for the same user.
		g.metrics.LocationDecision("throttled")
		return d, nil
	}
	g.metrics.LocationDecision("updated")
	g.logger.WithFields(logrus.Fields{"user_id": userID, "location": coord.String()}).Debug("stored user location")
	d.Updated = true
	return d, nil
}
