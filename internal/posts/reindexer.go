package posts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/anonto42/nearby/backend/internal/geo"
	"github.com/anonto42/nearby/backend/internal/metrics"
	"github.com/anonto42/nearby/backend/internal/models"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/sirupsen/logrus"
)

// Reindexer writes posts whose geo index insert failed after the post was
// stored. Pending posts are kept until an insert succeeds.
type Reindexer struct {
	index    geo.Index
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
	interval time.Duration
	executor failsafe.Executor[any]

	mu      sync.Mutex
	pending map[string]models.Coordinate

	wake   chan struct{}
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// ReindexerConfig holds configuration for the reindexer
type ReindexerConfig struct {
	Index   geo.Index
	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
	// Interval between sweeps of posts that are still pending (default: 30 seconds)
	Interval time.Duration
	// MaxAttempts per post and sweep (default: 3)
	MaxAttempts int
}

func NewReindexer(cfg ReindexerConfig) *Reindexer {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	retry := retrypolicy.NewBuilder[any]().
		WithBackoff(200*time.Millisecond, 5*time.Second).
		WithMaxRetries(attempts - 1).
		HandleIf(func(_ any, err error) bool {
			return err != nil && !errors.Is(err, geo.ErrInvalidCoordinate)
		}).
		Build()

	return &Reindexer{
		index:    cfg.Index,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		interval: interval,
		executor: failsafe.With[any](retry),
		pending:  make(map[string]models.Coordinate),
		wake:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// Enqueue schedules postID for insertion. It never blocks.
func (r *Reindexer) Enqueue(postID string, c models.Coordinate) {
	r.mu.Lock()
	r.pending[postID] = c
	depth := len(r.pending)
	r.mu.Unlock()
	r.metrics.ReindexDepth(depth)

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Pending reports how many posts are waiting.
func (r *Reindexer) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Start begins the background loop
func (r *Reindexer) Start() {
	r.wg.Add(1)
	go r.run()
	r.logger.Info("Geo reindexer started")
}

// Stop gracefully stops the loop. Posts still pending are logged.
func (r *Reindexer) Stop() {
	close(r.stopCh)
	r.wg.Wait()
	if n := r.Pending(); n > 0 {
		r.logger.WithField("pending", n).Warn("Geo reindexer stopped with posts still unindexed")
		return
	}
	r.logger.Info("Geo reindexer stopped")
}

func (r *Reindexer) run() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.wake:
			r.sweep()
		case <-ticker.C:
			r.sweep()
		case <-r.stopCh:
			return
		}
	}
}

func (r *Reindexer) sweep() {
	r.mu.Lock()
	batch := make(map[string]models.Coordinate, len(r.pending))
	for id, c := range r.pending {
		batch[id] = c
	}
	r.mu.Unlock()
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-r.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	for id, c := range batch {
		_, err := r.executor.WithContext(ctx).Get(func() (any, error) {
			return nil, r.index.Insert(ctx, id, c.Longitude, c.Latitude)
		})
		log := r.logger.WithField("post_id", id)
		switch {
		case err == nil:
			r.done(id, c)
			r.metrics.Reindexed("ok")
			log.Info("Post added to geo index")
		case errors.Is(err, geo.ErrInvalidCoordinate):
			r.done(id, c)
			r.metrics.Reindexed("invalid")
			log.WithError(err).Error("Dropping post with invalid coordinate from reindex queue")
		default:
			r.metrics.Reindexed("failed")
			log.WithError(err).Warn("Geo index insert failed, will retry")
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// done removes id unless it was re-enqueued with a different coordinate meanwhile.
func (r *Reindexer) done(id string, c models.Coordinate) {
	r.mu.Lock()
	if cur, ok := r.pending[id]; ok && cur == c {
		delete(r.pending, id)
	}
	depth := len(r.pending)
	r.mu.Unlock()
	r.metrics.ReindexDepth(depth)
}
