package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nearby/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// PostService is implemented by *posts.Service.
type PostService interface {
	CreatePost(ctx context.Context, userID uint, req models.CreatePostRequest) (*models.Post, error)
	CreateComment(ctx context.Context, userID uint, postID string, req models.CreateCommentRequest) (*models.Comment, error)
}

// PostHandler handles HTTP requests related to posts and their comments
type PostHandler struct {
	posts PostService
	feed  FeedService
}

func NewPostHandler(posts PostService, feed FeedService) *PostHandler {
	return &PostHandler{posts: posts, feed: feed}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.POST("/posts/:id/comments", h.CreateComment)
}

// CreatePost creates a new post at the given or the caller's stored location
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.posts.CreatePost(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Post created successfully", post)
}

// GetPost retrieves one post with its engagement
func (h *PostHandler) GetPost(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	post, err := h.feed.Post(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Post fetched successfully", post)
}

// CreateComment adds a comment to a post
func (h *PostHandler) CreateComment(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.posts.CreateComment(c.Request().Context(), userID, c.Param("id"), req)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Comment added", comment)
}
