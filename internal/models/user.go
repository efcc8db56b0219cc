package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is the relational user record. Location is only written through the
// location update gate.
type User struct {
	ID                    uint       `json:"id" gorm:"primaryKey"`
	FullName              string     `json:"fullName"`
	Username              string     `json:"username" gorm:"uniqueIndex"`
	Email                 string     `json:"email" gorm:"uniqueIndex"`
	FirebaseUID           *string    `json:"-" gorm:"uniqueIndex"`
	Location              string     `json:"location"`
	LastLocationUpdatedAt *time.Time `json:"lastLocationUpdatedAt"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// UserCompact carries the author display fields embedded in posts and comments.
type UserCompact struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{FullName: u.FullName, Username: u.Username}
}

// Profile is the caller's user record with their own posts.
type Profile struct {
	User  *User      `json:"user"`
	Posts []FeedPost `json:"posts"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
