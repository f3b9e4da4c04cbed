package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User represents a registered account (PostgreSQL)
type User struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Username   string    `json:"username" gorm:"uniqueIndex;size:30"`
	FullName   string    `json:"fullName"`
	Email      string    `json:"email" gorm:"uniqueIndex"`
	Password   string    `json:"-"` // bcrypt hash, never serialized
	Bio        string    `json:"bio"`
	Link       string    `json:"link"`
	ProfileImg string    `json:"profileImg"`
	CoverImg   string    `json:"coverImg"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UserCompact is the public subset of a user embedded in enriched responses
type UserCompact struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	ProfileImg string `json:"profileImg"`
}

// ToCompact returns the public projection of the user
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:         u.ID,
		Username:   u.Username,
		ProfileImg: u.ProfileImg,
	}
}

// SignupRequest defines the request body for local registration
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	FullName string `json:"fullName" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest defines the request body for authentication
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest defines the request body for profile updates
type UpdateUserRequest struct {
	FullName   string `json:"fullName,omitempty" validate:"omitempty,min=2,max=50"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Bio        string `json:"bio,omitempty" validate:"omitempty,max=160"`
	Link       string `json:"link,omitempty" validate:"omitempty,url"`
	ProfileImg string `json:"profileImg,omitempty" validate:"omitempty,url"`
	CoverImg   string `json:"coverImg,omitempty" validate:"omitempty,url"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
