package models

import "time"

// Comment represents a comment on a post. Comments are append-only.
type Comment struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	PostID    string      `json:"postId" gorm:"size:24;not null;index"` // MongoDB ObjectID hex
	UserID    uint        `json:"userId" gorm:"not null;index"`
	Content   string      `json:"content" gorm:"not null"`
	CreatedAt time.Time   `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time   `json:"updatedAt"`
	User      UserCompact `json:"user" gorm:"-"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}
