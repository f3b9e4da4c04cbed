package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/nayeem-dev/chirpnet/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository defines the interface for notification data operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetByRecipient(ctx context.Context, recipientID uint) ([]models.Notification, error)
	MarkAllRead(ctx context.Context, recipientID uint) error
	GetNotificationByID(ctx context.Context, id string) (*models.Notification, error)
	DeleteNotification(ctx context.Context, id string) error
	DeleteByRecipient(ctx context.Context, recipientID uint) error
}

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection("notifications")}
}

// CreateNotification inserts a new notification into MongoDB
func (r *MongoNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

// GetByRecipient retrieves all notifications addressed to a user, most recent first
func (r *MongoNotificationRepository) GetByRecipient(ctx context.Context, recipientID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"to": recipientID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkAllRead flips the read flag on every notification addressed to a user
func (r *MongoNotificationRepository) MarkAllRead(ctx context.Context, recipientID uint) error {
	_, err := r.collection.UpdateMany(ctx, bson.M{"to": recipientID}, bson.M{"$set": bson.M{"read": true}})
	return err
}

// GetNotificationByID retrieves a notification by ID from MongoDB
func (r *MongoNotificationRepository) GetNotificationByID(ctx context.Context, id string) (*models.Notification, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, mongo.ErrNoDocuments
	}

	var notification models.Notification
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&notification)
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

// DeleteNotification deletes a notification by ID from MongoDB
func (r *MongoNotificationRepository) DeleteNotification(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid notification ID format: %w", err)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteByRecipient deletes every notification addressed to a user.
// Matching zero documents is not an error.
func (r *MongoNotificationRepository) DeleteByRecipient(ctx context.Context, recipientID uint) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"to": recipientID})
	return err
}
