package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/anonto42/nearby/backend/internal/models"
	"github.com/anonto42/nearby/backend/internal/repositories"
	"golang.org/x/sync/errgroup"
)

type PostStore interface {
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByIDs(ctx context.Context, ids []string) ([]models.Post, error)
	GetPostsByUserID(ctx context.Context, userID uint) ([]models.Post, error)
}

type UserStore interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
}

type ReactionStore interface {
	GetReactionsByPostIDs(ctx context.Context, postIDs []string) ([]models.Reaction, error)
}

type CommentStore interface {
	GetCommentsByPostIDs(ctx context.Context, postIDs []string) ([]models.Comment, error)
}

// Hydrate attaches authors, reactions, comments and counts to posts, and
// returns them newest first. Each collection is loaded with one batched
// query regardless of the number of posts.
func (a *Assembler) Hydrate(ctx context.Context, viewerID uint, posts []models.Post) ([]models.FeedPost, error) {
	out := make([]models.FeedPost, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID.Hex()
	}

	var (
		reactions []models.Reaction
		comments  []models.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reactions, err = a.Reactions.GetReactionsByPostIDs(gctx, ids)
		if err != nil {
			return storageErr(gctx, "load reactions", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		comments, err = a.Comments.GetCommentsByPostIDs(gctx, ids)
		if err != nil {
			return storageErr(gctx, "load comments", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	authors, err := a.authors(ctx, posts, comments)
	if err != nil {
		return nil, err
	}

	byPost := make(map[string]*models.FeedPost, len(posts))
	for _, p := range posts {
		out = append(out, models.FeedPost{
			Post:      p,
			User:      authors[p.UserID],
			Reactions: []models.Reaction{},
			Comments:  []models.Comment{},
		})
	}
	for i := range out {
		byPost[out[i].ID.Hex()] = &out[i]
	}

	for _, r := range reactions {
		fp, ok := byPost[r.PostID]
		if !ok {
			continue
		}
		fp.Reactions = append(fp.Reactions, r)
		switch r.Type {
		case models.ReactionLike:
			fp.TotalLikes++
		case models.ReactionDislike:
			fp.TotalDislikes++
		}
		if viewerID != 0 && r.UserID == viewerID {
			fp.HasViewerLiked = r.Type == models.ReactionLike
			fp.HasViewerDisliked = r.Type == models.ReactionDislike
		}
	}
	for _, c := range comments {
		fp, ok := byPost[c.PostID]
		if !ok {
			continue
		}
		c.User = authors[c.UserID]
		fp.Comments = append(fp.Comments, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

// authors loads display fields for post and comment authors in one query.
func (a *Assembler) authors(ctx context.Context, posts []models.Post, comments []models.Comment) (map[uint]models.UserCompact, error) {
	seen := make(map[uint]struct{})
	var ids []uint
	add := func(id uint) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, p := range posts {
		add(p.UserID)
	}
	for _, c := range comments {
		add(c.UserID)
	}

	users, err := a.Users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, storageErr(ctx, "load authors", err)
	}
	out := make(map[uint]models.UserCompact, len(users))
	for i := range users {
		out[users[i].ID] = users[i].ToCompact()
	}
	return out, nil
}

// Post returns one hydrated post.
func (a *Assembler) Post(ctx context.Context, viewerID uint, postID string) (*models.FeedPost, error) {
	post, err := a.Posts.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("post %s: %w", postID, err)
		}
		return nil, storageErr(ctx, "load post", err)
	}
	hydrated, err := a.Hydrate(ctx, viewerID, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &hydrated[0], nil
}

// Profile returns the user's record and their own posts, newest first.
func (a *Assembler) Profile(ctx context.Context, userID uint) (*models.Profile, error) {
	user, err := a.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, err)
		}
		return nil, storageErr(ctx, "load user", err)
	}
	posts, err := a.Posts.GetPostsByUserID(ctx, userID)
	if err != nil {
		return nil, storageErr(ctx, "load posts", err)
	}
	hydrated, err := a.Hydrate(ctx, userID, posts)
	if err != nil {
		return nil, err
	}
	return &models.Profile{User: user, Posts: hydrated}, nil
}
