package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/schlyythetech/taskmaster/internal/middleware"
	"github.com/schlyythetech/taskmaster/internal/models"
	"github.com/schlyythetech/taskmaster/internal/notifications"
	"github.com/schlyythetech/taskmaster/internal/repositories"
	"github.com/schlyythetech/taskmaster/internal/session"
	"github.com/schlyythetech/taskmaster/validators"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMembership{},
		&models.Task{},
		&models.Comment{},
		&models.Connection{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

// newTestServer builds an Echo instance whose /api/v1 group carries a
// session middleware reading the acting user id from the X-User-ID header,
// standing in for the JWT middleware.
func newTestServer(t *testing.T) (*echo.Echo, *echo.Group) {
	t.Helper()

	e := echo.New()
	e.Validator = validators.NewValidator()

	api := e.Group("/api/v1")
	api.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var userID uint
			fmt.Sscan(c.Request().Header.Get("X-User-ID"), &userID)
			c.Set(middleware.SessionKey, session.Context{UserID: userID, CSRFValidated: true})
			return next(c)
		}
	})
	return e, api
}

func setupServer(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()

	db := openTestDB(t)
	e, api := newTestServer(t)

	userRepo := repositories.NewPostgresUserRepository(db)
	notifRepo := repositories.NewPostgresNotificationRepository(db)
	engine := notifications.NewEngine(db)
	notifHandler := NewNotificationHandler(notifRepo, userRepo, engine)
	notifHandler.RegisterNotificationRoutes(api)

	projectRepo := repositories.NewPostgresProjectRepository(db)
	membershipRepo := repositories.NewPostgresMembershipRepository(db)
	projectHandler := NewProjectHandler(projectRepo, membershipRepo, userRepo, notifRepo)
	projectHandler.RegisterProjectRoutes(api)

	return e, db
}

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func doRequest(e *echo.Echo, method, target string, userID uint, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-User-ID", fmt.Sprint(userID))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetNotificationsList(t *testing.T) {
	e, db := setupServer(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	db.Create(&models.Notification{
		RecipientID:   alice.ID,
		Type:          string(notifications.KindConnectionRequest),
		Message:       "bob wants to connect with you",
		RelatedUserID: bob.ID,
	})
	db.Create(&models.Notification{
		RecipientID: alice.ID,
		Type:        string(notifications.KindAchievement),
		Message:     "First task completed!",
		IsRead:      true,
	})

	rec := doRequest(e, http.MethodGet, "/api/v1/notifications?action=get&filter=all", alice.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success       bool                   `json:"success"`
		Notifications []EnrichedNotification `json:"notifications"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true")
	}
	if len(resp.Notifications) != 2 {
		t.Fatalf("notifications = %d, want 2", len(resp.Notifications))
	}

	for _, n := range resp.Notifications {
		switch notifications.Kind(n.Kind) {
		case notifications.KindConnectionRequest:
			if !n.Actionable {
				t.Error("connection_request should be actionable")
			}
			if n.Actor.ID != bob.ID {
				t.Errorf("actor id = %d, want %d", n.Actor.ID, bob.ID)
			}
		case notifications.KindAchievement:
			if n.Actionable {
				t.Error("achievement should not be actionable")
			}
		default:
			t.Errorf("unexpected kind %q", n.Kind)
		}
	}

	// The unread filter never returns read notifications.
	rec = doRequest(e, http.MethodGet, "/api/v1/notifications?filter=unread", alice.ID, nil)
	var unreadResp struct {
		Notifications []EnrichedNotification `json:"notifications"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &unreadResp)
	for _, n := range unreadResp.Notifications {
		if n.IsRead {
			t.Errorf("unread filter returned read notification %d", n.ID)
		}
	}
	if len(unreadResp.Notifications) != 1 {
		t.Errorf("unread notifications = %d, want 1", len(unreadResp.Notifications))
	}
}

func TestPostAcceptJoinRequest(t *testing.T) {
	e, db := setupServer(t)
	owner := seedUser(t, db, "owner")
	requester := seedUser(t, db, "requester")

	project := &models.Project{Name: "Apollo", OwnerID: owner.ID}
	db.Create(project)
	db.Create(&models.ProjectMembership{
		ProjectID: project.ID, UserID: owner.ID,
		Role: models.RoleOwner, Status: models.MembershipActive,
	})

	n := &models.Notification{
		RecipientID:   owner.ID,
		Type:          string(notifications.KindJoinRequest),
		Message:       "requester requested to join Apollo",
		RelatedID:     project.ID,
		RelatedUserID: requester.ID,
	}
	db.Create(n)

	rec := doRequest(e, http.MethodPost, "/api/v1/notifications?action=accept", owner.ID,
		models.NotificationActionRequest{NotificationID: n.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success     bool   `json:"success"`
		Message     string `json:"message"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true")
	}
	if resp.RedirectURL == "" {
		t.Error("expected a redirect_url")
	}

	var count int64
	db.Model(&models.ProjectMembership{}).
		Where("project_id = ? AND user_id = ? AND status = ?", project.ID, requester.ID, models.MembershipActive).
		Count(&count)
	if count != 1 {
		t.Errorf("active membership rows = %d, want 1", count)
	}
}

func TestPostAcceptForeignNotification(t *testing.T) {
	e, db := setupServer(t)
	owner := seedUser(t, db, "owner")
	intruder := seedUser(t, db, "intruder")

	project := &models.Project{Name: "Apollo", OwnerID: owner.ID}
	db.Create(project)
	n := &models.Notification{
		RecipientID: owner.ID,
		Type:        string(notifications.KindJoinRequest),
		RelatedID:   project.ID,
	}
	db.Create(n)

	rec := doRequest(e, http.MethodPost, "/api/v1/notifications?action=accept", intruder.ID,
		models.NotificationActionRequest{NotificationID: n.ID})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", rec.Code, rec.Body.String())
	}
}

func TestPostMarkRead(t *testing.T) {
	e, db := setupServer(t)
	alice := seedUser(t, db, "alice")

	n := &models.Notification{RecipientID: alice.ID, Message: "hello"}
	db.Create(n)

	rec := doRequest(e, http.MethodPost, "/api/v1/notifications?action=mark_read", alice.ID,
		models.NotificationActionRequest{NotificationID: n.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got models.Notification
	db.First(&got, n.ID)
	if !got.IsRead {
		t.Error("notification should be read")
	}

	// Marking again succeeds with the same outcome.
	rec = doRequest(e, http.MethodPost, "/api/v1/notifications?action=mark_read", alice.ID,
		models.NotificationActionRequest{NotificationID: n.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("second mark_read status = %d, want 200", rec.Code)
	}
}

func TestPostMarkAllRead(t *testing.T) {
	e, db := setupServer(t)
	alice := seedUser(t, db, "alice")

	for i := 0; i < 3; i++ {
		db.Create(&models.Notification{RecipientID: alice.ID, Message: "n"})
	}

	rec := doRequest(e, http.MethodPost, "/api/v1/notifications?action=mark_all_read", alice.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool  `json:"success"`
		Count   int64 `json:"count"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Count != 3 {
		t.Errorf("count = %d, want 3", resp.Count)
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/notifications/unread-count", alice.ID, nil)
	var countResp struct {
		Count int64 `json:"count"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &countResp)
	if countResp.Count != 0 {
		t.Errorf("unread count = %d, want 0", countResp.Count)
	}
}

func TestPostUnknownAction(t *testing.T) {
	e, db := setupServer(t)
	alice := seedUser(t, db, "alice")

	rec := doRequest(e, http.MethodPost, "/api/v1/notifications?action=explode", alice.ID,
		models.NotificationActionRequest{NotificationID: 1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUnauthenticated(t *testing.T) {
	e, _ := setupServer(t)

	rec := doRequest(e, http.MethodGet, "/api/v1/notifications", 0, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
