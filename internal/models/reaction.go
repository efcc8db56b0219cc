package models

import "time"

// ReactionKind is the kind of a user's reaction to a post.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "LIKE"
	ReactionDislike ReactionKind = "DISLIKE"
)

// Valid reports whether k is LIKE or DISLIKE.
func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

// Reaction is a user's LIKE or DISLIKE on a post. The composite unique index
// keeps at most one row per (user, post).
type Reaction struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	UserID    uint         `json:"userId" gorm:"not null;uniqueIndex:idx_reactions_user_post"`
	PostID    string       `json:"postId" gorm:"size:24;not null;uniqueIndex:idx_reactions_user_post;index"`
	Type      ReactionKind `json:"type" gorm:"size:10;not null"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// ReactionRequest defines the request body for reacting to a post.
type ReactionRequest struct {
	Type string `json:"type" validate:"required,oneof=LIKE DISLIKE"`
}
