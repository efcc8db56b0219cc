// Package reactions enforces at most one LIKE or DISLIKE per user per post
// and the toggle semantics between them.
package reactions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/anonto42/nearby/backend/internal/metrics"
	"github.com/anonto42/nearby/backend/internal/models"
	"github.com/anonto42/nearby/backend/internal/repositories"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidKind  = errors.New("reaction type must be LIKE or DISLIKE")
	ErrInvalidKey   = errors.New("user and post are required")
	ErrPostNotFound = errors.New("post not found")
	// ErrConflict is returned when concurrent writers kept invalidating the
	// transition for every attempt.
	ErrConflict = errors.New("reaction transition conflict")
)

const (
	defaultMaxAttempts = 3
	// A transition runs detached from the caller's cancellation; this bounds it.
	defaultTransitionTimeout = 5 * time.Second
)

// Store is the relational side of reactions.
type Store interface {
	FindReaction(ctx context.Context, userID uint, postID string) (*models.Reaction, error)
	CreateReaction(ctx context.Context, reaction *models.Reaction) error
	UpdateReactionKind(ctx context.Context, id uint, from, to models.ReactionKind) (bool, error)
	DeleteReaction(ctx context.Context, id uint) (bool, error)
}

// Result is the outcome of one request.
type Result struct {
	State    State            `json:"state"`
	Reaction *models.Reaction `json:"reaction"`
	Message  string           `json:"-"`
}

// Machine serializes read-then-write transitions per (user, post) inside the
// process and relies on the store's unique index plus conditional writes to
// stay correct across processes.
type Machine struct {
	store       Store
	locks       *KeyedMutex
	maxAttempts int
	timeout     time.Duration
	logger      logrus.FieldLogger
	metrics     *metrics.Metrics
}

// Option configures a Machine.
type Option func(*Machine)

func WithMaxAttempts(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Machine) { m.metrics = mt }
}

// NewMachine builds a Machine over store.
func NewMachine(store Store, logger logrus.FieldLogger, opts ...Option) *Machine {
	m := &Machine{
		store:       store,
		locks:       NewKeyedMutex(),
		maxAttempts: defaultMaxAttempts,
		timeout:     defaultTransitionTimeout,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func lockKey(userID uint, postID string) string {
	return strconv.FormatUint(uint64(userID), 10) + ":" + postID
}

// errStale signals that the row changed between read and write.
var errStale = errors.New("stale reaction state")

// Apply runs one LIKE or DISLIKE request through the transition table. Once
// the per-key lock is held the transition ignores caller cancellation.
func (m *Machine) Apply(ctx context.Context, userID uint, postID string, kind models.ReactionKind) (Result, error) {
	if !kind.Valid() {
		return Result{}, ErrInvalidKind
	}
	if userID == 0 || postID == "" {
		return Result{}, ErrInvalidKey
	}
	return m.locked(ctx, userID, postID, func(ctx context.Context) (Result, error) {
		return m.step(ctx, userID, postID, kind)
	})
}

// Remove clears any reaction the user has on the post.
func (m *Machine) Remove(ctx context.Context, userID uint, postID string) (Result, error) {
	if userID == 0 || postID == "" {
		return Result{}, ErrInvalidKey
	}
	return m.locked(ctx, userID, postID, func(ctx context.Context) (Result, error) {
		cur, err := m.store.FindReaction(ctx, userID, postID)
		if err != nil {
			return Result{}, err
		}
		if cur == nil {
			return Result{State: StateNone, Message: "reaction removed"}, nil
		}
		if _, err := m.store.DeleteReaction(ctx, cur.ID); err != nil {
			return Result{}, err
		}
		m.metrics.ReactionTransition(string(stateOf(cur)), string(StateNone))
		return Result{State: StateNone, Message: "reaction removed"}, nil
	})
}

func (m *Machine) locked(ctx context.Context, userID uint, postID string, fn func(context.Context) (Result, error)) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	unlock := m.locks.Lock(lockKey(userID, postID))
	defer unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	log := m.logger.WithFields(logrus.Fields{"user_id": userID, "post_id": postID})
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, errStale) {
			return Result{}, err
		}
		m.metrics.ReactionRetry()
		log.WithField("attempt", attempt).Debug("reaction changed concurrently, retrying")
	}
	log.Warn("reaction transition kept conflicting")
	return Result{}, fmt.Errorf("%w after %d attempts", ErrConflict, m.maxAttempts)
}

func (m *Machine) step(ctx context.Context, userID uint, postID string, kind models.ReactionKind) (Result, error) {
	cur, err := m.store.FindReaction(ctx, userID, postID)
	if err != nil {
		return Result{}, err
	}
	from := stateOf(cur)
	t := transitions[from][kind]

	var out *models.Reaction
	switch t.action {
	case actionCreate:
		r := &models.Reaction{UserID: userID, PostID: postID, Type: kind}
		if err := m.store.CreateReaction(ctx, r); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return Result{}, errStale
			}
			if errors.Is(err, repositories.ErrNotFound) {
				return Result{}, ErrPostNotFound
			}
			return Result{}, err
		}
		out = r
	case actionUpdate:
		ok, err := m.store.UpdateReactionKind(ctx, cur.ID, cur.Type, kind)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, errStale
		}
		updated := *cur
		updated.Type = kind
		updated.UpdatedAt = time.Now()
		out = &updated
	case actionDelete:
		ok, err := m.store.DeleteReaction(ctx, cur.ID)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return Result{}, errStale
		}
	}

	m.metrics.ReactionTransition(string(from), string(t.next))
	return Result{State: t.next, Reaction: out, Message: t.message}, nil
}
