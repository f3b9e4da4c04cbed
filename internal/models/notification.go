package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType tags what kind of action produced a notification
type NotificationType string

const (
	NotificationTypeLike    NotificationType = "like"
	NotificationTypeComment NotificationType = "comment"
	NotificationTypeFollow  NotificationType = "follow"
)

// HasPost reports whether notifications of this type reference a post.
// Follow notifications never carry a post id.
func (t NotificationType) HasPost() bool {
	return t == NotificationTypeLike || t == NotificationTypeComment
}

// Valid reports whether t is one of the known notification types
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeLike, NotificationTypeComment, NotificationTypeFollow:
		return true
	}
	return false
}

// Notification represents a stored notification (MongoDB).
// From and To are user IDs; PostID is the hex ObjectID of the related post
// and is set only for like and comment notifications.
type Notification struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	From      uint               `json:"from" bson:"from"`
	To        uint               `json:"to" bson:"to"`
	Type      NotificationType   `json:"type" bson:"type"`
	PostID    string             `json:"postId,omitempty" bson:"post_id,omitempty"`
	Read      bool               `json:"read" bson:"read"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

// CreateNotificationRequest defines the request body for creating a notification.
// The acting user always comes from the session, never from the payload.
type CreateNotificationRequest struct {
	PostID   string `json:"postId,omitempty"`
	Type     string `json:"type" validate:"required,oneof=like comment follow"`
	ToUserID uint   `json:"toUserId" validate:"required"`
}
