package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nayeem-dev/chirpnet/backend/internal/models"
	"github.com/nayeem-dev/chirpnet/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubNotificationRepo is an in-memory NotificationRepository
type stubNotificationRepo struct {
	notifications map[string]*models.Notification
	clock         time.Time
}

func newStubNotificationRepo() *stubNotificationRepo {
	return &stubNotificationRepo{
		notifications: make(map[string]*models.Notification),
		clock:         time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (r *stubNotificationRepo) CreateNotification(_ context.Context, n *models.Notification) error {
	n.ID = primitive.NewObjectID()
	r.clock = r.clock.Add(time.Second)
	n.CreatedAt = r.clock
	stored := *n
	r.notifications[n.ID.Hex()] = &stored
	return nil
}

func (r *stubNotificationRepo) GetByRecipient(_ context.Context, recipientID uint) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range r.notifications {
		if n.To == recipientID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubNotificationRepo) MarkAllRead(_ context.Context, recipientID uint) error {
	for _, n := range r.notifications {
		if n.To == recipientID {
			n.Read = true
		}
	}
	return nil
}

func (r *stubNotificationRepo) GetNotificationByID(_ context.Context, id string) (*models.Notification, error) {
	n, ok := r.notifications[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copied := *n
	return &copied, nil
}

func (r *stubNotificationRepo) DeleteNotification(_ context.Context, id string) error {
	if _, ok := r.notifications[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.notifications, id)
	return nil
}

func (r *stubNotificationRepo) DeleteByRecipient(_ context.Context, recipientID uint) error {
	for id, n := range r.notifications {
		if n.To == recipientID {
			delete(r.notifications, id)
		}
	}
	return nil
}

// stubUserRepo resolves every user id to a fixed profile
type stubUserRepo struct{}

func (stubUserRepo) CreateUser(*models.User) error { return nil }
func (stubUserRepo) GetUserByID(id uint) (*models.User, error) {
	return &models.User{ID: id, Username: "user", ProfileImg: "https://img/user.png"}, nil
}
func (stubUserRepo) GetUserByUsername(string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (stubUserRepo) GetUserByEmail(string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (stubUserRepo) UpdateUser(*models.User) error          { return nil }
func (stubUserRepo) DeleteUser(uint) error                  { return nil }
func (stubUserRepo) SearchUsers(string) ([]models.User, error) { return nil, nil }

// stubPostRepo has no posts; enrichment simply skips the preview
type stubPostRepo struct{}

func (stubPostRepo) CreatePost(context.Context, *models.Post) error { return nil }
func (stubPostRepo) GetPostByID(context.Context, string) (*models.Post, error) {
	return nil, mongo.ErrNoDocuments
}
func (stubPostRepo) GetPostsByUserID(context.Context, uint, int64, int64) ([]models.Post, error) {
	return nil, nil
}
func (stubPostRepo) GetAllPosts(context.Context, int64, int64) ([]models.Post, error) {
	return nil, nil
}
func (stubPostRepo) CountPosts(context.Context) (int64, error)          { return 0, nil }
func (stubPostRepo) DeletePost(context.Context, string) error           { return nil }
func (stubPostRepo) IncrementLikesCount(context.Context, string) error  { return nil }
func (stubPostRepo) DecrementLikesCount(context.Context, string) error  { return nil }
func (stubPostRepo) IncrementCommentsCount(context.Context, string) error { return nil }
func (stubPostRepo) DecrementCommentsCount(context.Context, string) error { return nil }

func newTestNotificationHandler() (*NotificationHandler, *stubNotificationRepo, *services.NotificationService) {
	repo := newStubNotificationRepo()
	svc := services.NewNotificationService(repo, stubUserRepo{}, stubPostRepo{}, zap.NewNop().Sugar())
	return NewNotificationHandler(svc, zap.NewNop().Sugar()), repo, svc
}

func newJSONContext(t *testing.T, method, target, body string, userID uint) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user", &models.JwtCustomClaims{UserID: userID, Username: "user"})
	}
	return c, rec
}

func TestGetNotificationsRequiresAuthentication(t *testing.T) {
	h, _, _ := newTestNotificationHandler()
	c, _ := newJSONContext(t, http.MethodGet, "/api/v1/notifications", "", 0)

	err := h.GetNotifications(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestCreateNotificationReturns201(t *testing.T) {
	h, repo, _ := newTestNotificationHandler()
	c, rec := newJSONContext(t, http.MethodPost, "/api/v1/notifications", `{"type":"follow","toUserId":2}`, 1)

	require.NoError(t, h.CreateNotification(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.notifications, 1)
	for _, n := range repo.notifications {
		assert.Equal(t, uint(1), n.From, "actor comes from the session, not the payload")
		assert.Equal(t, uint(2), n.To)
		assert.Equal(t, models.NotificationTypeFollow, n.Type)
	}
}

func TestCreateNotificationRejectsUnknownType(t *testing.T) {
	h, _, _ := newTestNotificationHandler()
	c, _ := newJSONContext(t, http.MethodPost, "/api/v1/notifications", `{"type":"mention","toUserId":2}`, 1)

	err := h.CreateNotification(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestGetNotificationsReturnsEnrichedList(t *testing.T) {
	h, _, svc := newTestNotificationHandler()

	_, err := svc.Create(context.Background(), 1, 2, models.NotificationTypeFollow, "")
	require.NoError(t, err)

	c, rec := newJSONContext(t, http.MethodGet, "/api/v1/notifications", "", 2)
	require.NoError(t, h.GetNotifications(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var listed []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "follow", listed[0]["type"])
	assert.Equal(t, false, listed[0]["read"])
	from, ok := listed[0]["from"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "user", from["username"])
	_, hasPost := listed[0]["postId"]
	assert.False(t, hasPost, "follow notifications carry no post preview")
}

func TestGetNotificationsEmptyListIsOK(t *testing.T) {
	h, _, _ := newTestNotificationHandler()

	c, rec := newJSONContext(t, http.MethodGet, "/api/v1/notifications", "", 2)
	require.NoError(t, h.GetNotifications(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestDeleteNotificationNotFound(t *testing.T) {
	h, _, _ := newTestNotificationHandler()
	c, _ := newJSONContext(t, http.MethodDelete, "/", "", 2)
	c.SetPath("/api/v1/notifications/:id")
	c.SetParamNames("id")
	c.SetParamValues(primitive.NewObjectID().Hex())

	err := h.DeleteNotification(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestDeleteNotificationForbiddenForNonRecipient(t *testing.T) {
	h, repo, svc := newTestNotificationHandler()

	n, err := svc.Create(context.Background(), 1, 2, models.NotificationTypeFollow, "")
	require.NoError(t, err)

	c, _ := newJSONContext(t, http.MethodDelete, "/", "", 1) // the actor, not the recipient
	c.SetPath("/api/v1/notifications/:id")
	c.SetParamNames("id")
	c.SetParamValues(n.ID.Hex())

	err = h.DeleteNotification(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Code)
	assert.Len(t, repo.notifications, 1, "record must be left unchanged")
}

func TestDeleteNotificationByRecipient(t *testing.T) {
	h, repo, svc := newTestNotificationHandler()

	n, err := svc.Create(context.Background(), 1, 2, models.NotificationTypeFollow, "")
	require.NoError(t, err)

	c, rec := newJSONContext(t, http.MethodDelete, "/", "", 2)
	c.SetPath("/api/v1/notifications/:id")
	c.SetParamNames("id")
	c.SetParamValues(n.ID.Hex())

	require.NoError(t, h.DeleteNotification(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, repo.notifications)
}

func TestDeleteAllNotifications(t *testing.T) {
	h, repo, svc := newTestNotificationHandler()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, 1, 2, models.NotificationTypeFollow, "")
		require.NoError(t, err)
	}

	c, rec := newJSONContext(t, http.MethodDelete, "/api/v1/notifications", "", 2)
	require.NoError(t, h.DeleteAllNotifications(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, repo.notifications)

	// Deleting again with nothing stored still succeeds
	c, rec = newJSONContext(t, http.MethodDelete, "/api/v1/notifications", "", 2)
	require.NoError(t, h.DeleteAllNotifications(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
