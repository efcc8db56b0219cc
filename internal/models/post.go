package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category classifies a post.
type Category string

const (
	CategoryLocalUpdate         Category = "LOCAL_UPDATE"
	CategoryPlaceRecommendation Category = "PLACE_RECOMMENDATION"
	CategoryHelp                Category = "HELP"
	CategoryEventAnnouncement   Category = "EVENT_ANNOUNCEMENT"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryLocalUpdate, CategoryPlaceRecommendation, CategoryHelp, CategoryEventAnnouncement:
		return true
	}
	return false
}

// Post represents a neighborhood post stored in MongoDB. Its coordinate is
// fixed at creation and mirrored by exactly one geo index entry keyed by ID.
type Post struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID     uint               `json:"userId" bson:"user_id"`
	Content    string             `json:"content" bson:"content"`
	Category   Category           `json:"type" bson:"category"`
	Media      []string           `json:"media" bson:"media"`
	Location   string             `json:"location" bson:"location"`
	Coordinate Coordinate         `json:"coordinate" bson:"coordinate"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updated_at"`
}

// CreatePostRequest defines the request body for creating a new post.
// Location may be omitted, in which case the author's stored location is used.
type CreatePostRequest struct {
	Content  string   `json:"content" validate:"required"`
	Category string   `json:"type" validate:"required,oneof=LOCAL_UPDATE PLACE_RECOMMENDATION HELP EVENT_ANNOUNCEMENT"`
	Media    []string `json:"media,omitempty" validate:"omitempty,dive,url"`
	Location string   `json:"location,omitempty" validate:"omitempty,latlng"`
}

// LocationRequest carries the caller's current "lat,lng".
type LocationRequest struct {
	Location string `json:"location" validate:"required"`
}

// FeedPost is a hydrated post as presented to a viewer.
type FeedPost struct {
	Post
	User              UserCompact `json:"user"`
	Reactions         []Reaction  `json:"reactions"`
	Comments          []Comment   `json:"comments"`
	TotalLikes        int         `json:"totalLikes"`
	TotalDislikes     int         `json:"totalDislikes"`
	HasViewerLiked    bool        `json:"hasViewerLiked"`
	HasViewerDisliked bool        `json:"hasViewerDisliked"`
}
