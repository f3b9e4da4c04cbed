package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nayeem-dev/chirpnet/backend/internal/models"
	"github.com/nayeem-dev/chirpnet/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	// ErrNotificationNotFound is returned when the target notification does not exist
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrNotNotificationRecipient is returned when the caller is not the notification's recipient
	ErrNotNotificationRecipient = errors.New("not the notification recipient")
	// ErrInvalidNotificationType is returned for types outside like/comment/follow
	ErrInvalidNotificationType = errors.New("invalid notification type")
)

// NotificationService owns the notification lifecycle: creation as a side
// effect of user actions, listing with the mark-all-read side effect, and
// recipient-scoped deletion.
type NotificationService struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	postRepository         repositories.PostRepository
	logger                 *zap.SugaredLogger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notifRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	postRepo repositories.PostRepository,
	logger *zap.SugaredLogger,
) *NotificationService {
	return &NotificationService{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		postRepository:         postRepo,
		logger:                 logger,
	}
}

// PostPreview is the minimal post projection embedded in enriched notifications
type PostPreview struct {
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}

// EnrichedNotification is a notification joined with the actor's public
// profile and, for like/comment notifications, the related post's preview.
// The Post field keeps the postId JSON key so clients see the populated
// document where the raw record carries a reference.
type EnrichedNotification struct {
	ID        string                  `json:"id"`
	From      models.UserCompact      `json:"from"`
	To        uint                    `json:"to"`
	Type      models.NotificationType `json:"type"`
	Post      *PostPreview            `json:"postId,omitempty"`
	Read      bool                    `json:"read"`
	CreatedAt time.Time               `json:"createdAt"`
}

// Create persists a notification from actorID to recipientID. The post id is
// stored only for like and comment notifications; for follow it is discarded
// even if supplied. Repeated identical actions produce separate records.
func (s *NotificationService) Create(ctx context.Context, actorID, recipientID uint, nType models.NotificationType, postID string) (*models.Notification, error) {
	if !nType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNotificationType, nType)
	}
	if !nType.HasPost() {
		postID = ""
	}

	notification := &models.Notification{
		From:   actorID,
		To:     recipientID,
		Type:   nType,
		PostID: postID,
		Read:   false,
	}

	if err := s.notificationRepository.CreateNotification(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// List returns the user's notifications ordered by creation time descending,
// each enriched with the actor's profile and the related post preview. As a
// side effect every stored notification for the user is marked read, whether
// or not it appears in the returned snapshot.
func (s *NotificationService) List(ctx context.Context, userID uint) ([]EnrichedNotification, error) {
	notifications, err := s.notificationRepository.GetByRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}

	enriched := s.enrich(ctx, notifications)

	// The mark-read pass runs after a successful fetch; its failure leaves
	// the stored read flags behind what the caller received and is surfaced
	// as an internal failure.
	if err := s.notificationRepository.MarkAllRead(ctx, userID); err != nil {
		return nil, err
	}

	return enriched, nil
}

func (s *NotificationService) enrich(ctx context.Context, notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, 0, len(notifications))
	userCache := make(map[uint]models.UserCompact)
	postCache := make(map[string]*PostPreview)

	for _, n := range notifications {
		item := EnrichedNotification{
			ID:        n.ID.Hex(),
			To:        n.To,
			Type:      n.Type,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		}

		if actor, ok := userCache[n.From]; ok {
			item.From = actor
		} else if user, err := s.userRepository.GetUserByID(n.From); err == nil {
			compact := user.ToCompact()
			userCache[n.From] = compact
			item.From = compact
		} else {
			s.logger.Debugw("notification actor lookup failed", "user_id", n.From, "error", err)
		}

		if n.PostID != "" {
			if preview, ok := postCache[n.PostID]; ok {
				item.Post = preview
			} else if post, err := s.postRepository.GetPostByID(ctx, n.PostID); err == nil {
				preview := &PostPreview{Content: post.Content, Image: post.Image}
				postCache[n.PostID] = preview
				item.Post = preview
			} else {
				s.logger.Debugw("notification post lookup failed", "post_id", n.PostID, "error", err)
			}
		}

		enriched = append(enriched, item)
	}
	return enriched
}

// Delete removes a single notification. Only the recipient may delete it;
// anyone else gets ErrNotNotificationRecipient, a missing id gets
// ErrNotificationNotFound.
func (s *NotificationService) Delete(ctx context.Context, userID uint, notificationID string) error {
	notification, err := s.notificationRepository.GetNotificationByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotificationNotFound
		}
		return err
	}

	if notification.To != userID {
		return ErrNotNotificationRecipient
	}

	if err := s.notificationRepository.DeleteNotification(ctx, notificationID); err != nil {
		// A concurrent delete may have won the race; report it as not found.
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

// DeleteAll removes every notification addressed to the user. Deleting zero
// notifications is still a success.
func (s *NotificationService) DeleteAll(ctx context.Context, userID uint) error {
	return s.notificationRepository.DeleteByRecipient(ctx, userID)
}
