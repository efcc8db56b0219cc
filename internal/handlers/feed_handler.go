package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nearby/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// FeedService is implemented by *feed.Assembler.
type FeedService interface {
	Nearby(ctx context.Context, viewerID uint, rawLocation string) (*models.FeedResponse, string, error)
	UpdateLocation(ctx context.Context, userID uint, rawLocation string) (*models.LocationResponse, error)
	Post(ctx context.Context, viewerID uint, postID string) (*models.FeedPost, error)
	Profile(ctx context.Context, userID uint) (*models.Profile, error)
}

// FeedHandler handles discovery, location and profile requests
type FeedHandler struct {
	feed FeedService
}

func NewFeedHandler(feed FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.POST("/feed", h.GetNearbyFeed)
	g.POST("/location", h.UpdateLocation)
	g.GET("/profile", h.GetProfile)
}

// GetNearbyFeed returns posts near the caller's current location
func (h *FeedHandler) GetNearbyFeed(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.LocationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, msg, err := h.feed.Nearby(c.Request().Context(), userID, req.Location)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, msg, resp)
}

// UpdateLocation stores the caller's location, at most once per interval
func (h *FeedHandler) UpdateLocation(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req models.LocationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.feed.UpdateLocation(c.Request().Context(), userID, req.Location)
	if err != nil {
		return err
	}
	msg := "Location unchanged"
	if resp.Updated {
		msg = "Location updated"
	}
	return respond(c, http.StatusOK, msg, resp)
}

func (h *FeedHandler) GetProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	profile, err := h.feed.Profile(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Profile fetched successfully", profile)
}
