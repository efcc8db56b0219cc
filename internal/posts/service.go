// Package posts creates posts and comments. A post is stored first and then
// inserted into the geo index, so it is never discoverable before it exists.
package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/anonto42/nearby/backend/internal/geo"
	"github.com/anonto42/nearby/backend/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxContentChars = 280
	DefaultMaxMediaItems   = 5
)

// ErrValidation wraps every rejected create request.
var ErrValidation = errors.New("validation failed")

type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	ForEachLocation(ctx context.Context, fn func(id string, c models.Coordinate) error) error
}

type UserStore interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
}

// Queue takes posts whose index insert failed.
type Queue interface {
	Enqueue(postID string, c models.Coordinate)
}

// Limits are the product limits on new posts.
type Limits struct {
	MaxContentChars int
	MaxMediaItems   int
}

type Service struct {
	posts    PostStore
	users    UserStore
	comments CommentStore
	index    geo.Index
	queue    Queue
	limits   Limits
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewService(posts PostStore, users UserStore, comments CommentStore, index geo.Index, queue Queue, limits Limits, logger logrus.FieldLogger) *Service {
	if limits.MaxContentChars <= 0 {
		limits.MaxContentChars = DefaultMaxContentChars
	}
	if limits.MaxMediaItems <= 0 {
		limits.MaxMediaItems = DefaultMaxMediaItems
	}
	return &Service{
		posts:    posts,
		users:    users,
		comments: comments,
		index:    index,
		queue:    queue,
		limits:   limits,
		logger:   logger,
		now:      time.Now,
	}
}

// ContentLength counts the non-whitespace characters of s.
func ContentLength(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func (s *Service) validate(req *models.CreatePostRequest) error {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}
	if n := ContentLength(content); n > s.limits.MaxContentChars {
		return fmt.Errorf("%w: content has %d characters, the limit is %d", ErrValidation, n, s.limits.MaxContentChars)
	}
	if len(req.Media) > s.limits.MaxMediaItems {
		return fmt.Errorf("%w: at most %d media items are allowed", ErrValidation, s.limits.MaxMediaItems)
	}
	if !models.Category(req.Category).Valid() {
		return fmt.Errorf("%w: unknown post type %q", ErrValidation, req.Category)
	}
	return nil
}

// CreatePost validates req, stores the post and inserts it into the geo
// index. A failed index insert does not fail the request; the post is queued
// for a later insert instead.
func (s *Service) CreatePost(ctx context.Context, userID uint, req models.CreatePostRequest) (*models.Post, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}

	raw := req.Location
	if strings.TrimSpace(raw) == "" {
		user, err := s.users.GetUserByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load author: %w", err)
		}
		if user.Location == "" {
			return nil, fmt.Errorf("%w: no location given and none stored", models.ErrInvalidLocation)
		}
		raw = user.Location
	}
	coord, err := models.ParseLocation(raw)
	if err != nil {
		return nil, err
	}
	if !s.index.ValidCoordinate(coord.Longitude, coord.Latitude) {
		return nil, fmt.Errorf("%w: %s is outside the range the geo index supports", models.ErrInvalidLocation, coord.String())
	}

	media := req.Media
	if media == nil {
		media = []string{}
	}
	now := s.now().UTC()
	post := &models.Post{
		UserID:     userID,
		Content:    strings.TrimSpace(req.Content),
		Category:   models.Category(req.Category),
		Media:      media,
		Location:   coord.String(),
		Coordinate: coord,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("store post: %w", err)
	}

	id := post.ID.Hex()
	log := s.logger.WithFields(logrus.Fields{"post_id": id, "user_id": userID})
	if err := s.index.Insert(context.WithoutCancel(ctx), id, coord.Longitude, coord.Latitude); err != nil {
		log.WithError(err).Warn("geo index insert failed, queued for retry")
		s.queue.Enqueue(id, coord)
	} else {
		log.Info("post created")
	}
	return post, nil
}

// CreateComment appends a comment to an existing post.
func (s *Service) CreateComment(ctx context.Context, userID uint, postID string, req models.CreateCommentRequest) (*models.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	comment := &models.Comment{PostID: postID, UserID: userID, Content: content}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("store comment: %w", err)
	}
	if user, err := s.users.GetUserByID(ctx, userID); err == nil {
		comment.User = user.ToCompact()
	}
	return comment, nil
}

// Warm loads every stored post into index. It is used for in-process
// indexes, which start empty.
func (s *Service) Warm(ctx context.Context, index geo.Index) (int, error) {
	n := 0
	err := s.posts.ForEachLocation(ctx, func(id string, c models.Coordinate) error {
		if err := index.Insert(ctx, id, c.Longitude, c.Latitude); err != nil {
			if errors.Is(err, geo.ErrInvalidCoordinate) {
				s.logger.WithError(err).WithField("post_id", id).Warn("skipping post with invalid coordinate")
				return nil
			}
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("warm geo index: %w", err)
	}
	return n, nil
}
