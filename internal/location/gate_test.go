package location

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/nearby/backend/internal/models"
	"github.com/anonto42/nearby/backend/internal/repositories"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userStore struct {
	mu     sync.Mutex
	users  map[uint]*models.User
	writes int
	err    error
}

func (s *userStore) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) UpdateUserLocation(ctx context.Context, id uint, location string, at, staleBefore time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return false, nil
	}
	if u.LastLocationUpdatedAt != nil && !u.LastLocationUpdatedAt.Before(staleBefore) {
		return false, nil
	}
	u.Location = location
	u.LastLocationUpdatedAt = &at
	s.writes++
	return true, nil
}

func newGate(store Store, clock *time.Time) *Gate {
	logger, _ := test.NewNullLogger()
	g := NewGate(store, time.Hour, logger, nil)
	g.now = func() time.Time { return *clock }
	return g
}

var bangalore = models.Coordinate{Latitude: 12.9716, Longitude: 77.5946}

func TestFirstUpdatePersists(t *testing.T) {
	store := &userStore{users: map[uint]*models.User{1: {ID: 1}}}
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	g := newGate(store, &clock)

	d, err := g.Submit(context.Background(), 1, bangalore)
	require.NoError(t, err)
	assert.True(t, d.Updated)
	assert.Empty(t, d.Previous)
	assert.Equal(t, "12.9716,77.5946", store.users[1].Location)
	assert.Equal(t, clock, *store.users[1].LastLocationUpdatedAt)
}

func TestThrottlesWithinInterval(t *testing.T) {
	store := &userStore{users: map[uint]*models.User{1: {ID: 1}}}
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := start
	g := newGate(store, &clock)
	ctx := context.Background()

	_, err := g.Submit(ctx, 1, bangalore)
	require.NoError(t, err)

	clock = start.Add(59 * time.Minute)
	d, err := g.Submit(ctx, 1, models.Coordinate{Latitude: 13, Longitude: 77.6})
	require.NoError(t, err)
	assert.False(t, d.Updated)
	assert.Equal(t, 1, store.writes)
	assert.Equal(t, "12.9716,77.5946", store.users[1].Location)
	assert.Equal(t, start, *store.users[1].LastLocationUpdatedAt)

	clock = start.Add(61 * time.Minute)
	d, err = g.Submit(ctx, 1, models.Coordinate{Latitude: 13, Longitude: 77.6})
	require.NoError(t, err)
	assert.True(t, d.Updated)
	assert.Equal(t, "12.9716,77.5946", d.Previous)
	assert.Equal(t, 2, store.writes)
	assert.Equal(t, "13,77.6", store.users[1].Location)
}

func TestConcurrentSubmitsPersistOnce(t *testing.T) {
	store := &userStore{users: map[uint]*models.User{1: {ID: 1}}}
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	g := newGate(store, &clock)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Submit(context.Background(), 1, bangalore)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, store.writes)
}

func TestUnknownUser(t *testing.T) {
	clock := time.Now()
	g := newGate(&userStore{users: map[uint]*models.User{}}, &clock)
	_, err := g.Submit(context.Background(), 42, bangalore)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestInvalidCoordinate(t *testing.T) {
	store := &userStore{users: map[uint]*models.User{1: {ID: 1}}}
	clock := time.Now()
	g := newGate(store, &clock)
	_, err := g.Submit(context.Background(), 1, models.Coordinate{Latitude: 91})
	assert.ErrorIs(t, err, models.ErrInvalidLocation)
	assert.Zero(t, store.writes)
}

func TestStoreFailure(t *testing.T) {
	boom := errors.New("db down")
	clock := time.Now()
	g := newGate(&userStore{err: boom}, &clock)
	_, err := g.Submit(context.Background(), 1, bangalore)
	assert.ErrorIs(t, err, boom)
}
