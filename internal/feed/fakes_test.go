package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anonto42/nearby/backend/internal/geocode"
	"github.com/anonto42/nearby/backend/internal/location"
	"github.com/anonto42/nearby/backend/internal/models"
	"github.com/anonto42/nearby/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memPosts struct {
	mu    sync.Mutex
	posts map[string]models.Post
	err   error
	calls int
}

func newMemPosts() *memPosts { return &memPosts{posts: make(map[string]models.Post)} }

func (s *memPosts) add(userID uint, content string, c models.Coordinate, at time.Time) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.Post{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		Content:    content,
		Category:   models.CategoryLocalUpdate,
		Media:      []string{},
		Location:   c.String(),
		Coordinate: c,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	s.posts[p.ID.Hex()] = p
	return p
}

func (s *memPosts) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (s *memPosts) GetPostsByIDs(ctx context.Context, ids []string) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := []models.Post{}
	for _, id := range ids {
		if p, ok := s.posts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memPosts) GetPostsByUserID(ctx context.Context, userID uint) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Post{}
	for _, p := range s.posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memUsers struct {
	users map[uint]models.User
	calls int
}

func (s *memUsers) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (s *memUsers) GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	s.calls++
	out := []models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// memReactions backs both the reaction machine and the feed.
type memReactions struct {
	mu     sync.Mutex
	nextID uint
	rows   []models.Reaction
	err    error
	calls  int
}

func (s *memReactions) FindReaction(ctx context.Context, userID uint, postID string) (*models.Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.UserID == userID && r.PostID == postID {
			cp := r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memReactions) CreateReaction(ctx context.Context, r *models.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	r.CreatedAt = time.Now()
	s.rows = append(s.rows, *r)
	return nil
}

func (s *memReactions) UpdateReactionKind(ctx context.Context, id uint, from, to models.ReactionKind) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id && s.rows[i].Type == from {
			s.rows[i].Type = to
			return true, nil
		}
	}
	return false, nil
}

func (s *memReactions) DeleteReaction(ctx context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *memReactions) GetReactionsByPostIDs(ctx context.Context, postIDs []string) ([]models.Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	want := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		want[id] = true
	}
	out := []models.Reaction{}
	for _, r := range s.rows {
		if want[r.PostID] {
			out = append(out, r)
		}
	}
	return out, nil
}

type memComments struct {
	rows  []models.Comment
	calls int
}

func (s *memComments) GetCommentsByPostIDs(ctx context.Context, postIDs []string) ([]models.Comment, error) {
	s.calls++
	want := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		want[id] = true
	}
	out := []models.Comment{}
	for _, c := range s.rows {
		if want[c.PostID] {
			out = append(out, c)
		}
	}
	return out, nil
}

type recordingGate struct {
	mu    sync.Mutex
	calls []models.Coordinate
	err   error
}

func (g *recordingGate) Submit(ctx context.Context, userID uint, c models.Coordinate) (location.Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, c)
	if g.err != nil {
		return location.Decision{}, g.err
	}
	return location.Decision{Updated: true}, nil
}

type stubGeocoder struct {
	place geocode.Place
	err   error
}

func (g stubGeocoder) Resolve(ctx context.Context, lat, lon float64) (geocode.Place, error) {
	return g.place, g.err
}
