package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nearby/backend/internal/models"
	"github.com/anonto42/nearby/backend/internal/reactions"
	"github.com/labstack/echo/v4"
)

// ReactionService is implemented by *reactions.Machine.
type ReactionService interface {
	Apply(ctx context.Context, userID uint, postID string, kind models.ReactionKind) (reactions.Result, error)
	Remove(ctx context.Context, userID uint, postID string) (reactions.Result, error)
}

// PostLookup confirms a post exists before a reaction is written.
type PostLookup interface {
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
}

// ReactionHandler handles LIKE/DISLIKE toggles
type ReactionHandler struct {
	reactions ReactionService
	posts     PostLookup
}

func NewReactionHandler(reactions ReactionService, posts PostLookup) *ReactionHandler {
	return &ReactionHandler{reactions: reactions, posts: posts}
}

// RegisterReactionRoutes registers reaction routes
func (h *ReactionHandler) RegisterReactionRoutes(g *echo.Group) {
	g.POST("/posts/:id/reactions", h.React)
	g.DELETE("/posts/:id/reaction", h.RemoveReaction)
}

// React applies a LIKE or DISLIKE to the post. Repeating the same kind removes it.
func (h *ReactionHandler) React(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.ReactionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	postID := c.Param("id")
	if _, err := h.posts.GetPostByID(ctx, postID); err != nil {
		return err
	}
	res, err := h.reactions.Apply(ctx, userID, postID, models.ReactionKind(req.Type))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, res.Message, res)
}

func (h *ReactionHandler) RemoveReaction(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	res, err := h.reactions.Remove(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, res.Message, res)
}
