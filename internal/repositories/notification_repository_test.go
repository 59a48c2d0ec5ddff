package repositories

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/schlyythetech/taskmaster/internal/apperrors"
	"github.com/schlyythetech/taskmaster/internal/models"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
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

	err = db.AutoMigrate(&models.User{}, &models.Notification{})
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestCreateNotification(t *testing.T) {
	db := setupDB(t)
	repo := NewPostgresNotificationRepository(db)
	user := createUser(t, db, "alice")

	n := &models.Notification{RecipientID: user.ID, Type: "comment", Message: "hi"}
	if err := repo.Create(n); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if n.ID == 0 {
		t.Error("expected an assigned id")
	}
	if n.IsRead {
		t.Error("new notifications must start unread")
	}
}

func TestCreateNotificationUnknownRecipient(t *testing.T) {
	db := setupDB(t)
	repo := NewPostgresNotificationRepository(db)

	err := repo.Create(&models.Notification{RecipientID: 42, Message: "orphan"})
	var validation *apperrors.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestListForUserFilters(t *testing.T) {
	db := setupDB(t)
	repo := NewPostgresNotificationRepository(db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	read := &models.Notification{RecipientID: alice.ID, Message: "read one", IsRead: true}
	unread := &models.Notification{RecipientID: alice.ID, Message: "unread one"}
	other := &models.Notification{RecipientID: bob.ID, Message: "not mine"}
	for _, n := range []*models.Notification{read, unread, other} {
		if err := db.Create(n).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	all, err := repo.ListForUser(alice.ID, FilterAll)
	if err != nil {
		t.Fatalf("ListForUser(all) failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all = %d notifications, want 2", len(all))
	}
	seen := make(map[uint]bool)
	for _, n := range all {
		if seen[n.ID] {
			t.Errorf("duplicate id %d in list result", n.ID)
		}
		seen[n.ID] = true
		if n.RecipientID != alice.ID {
			t.Errorf("foreign notification %d in alice's mailbox", n.ID)
		}
	}

	unreadList, err := repo.ListForUser(alice.ID, FilterUnread)
	if err != nil {
		t.Fatalf("ListForUser(unread) failed: %v", err)
	}
	for _, n := range unreadList {
		if n.IsRead {
			t.Errorf("unread filter returned a read notification %d", n.ID)
		}
	}
	if len(unreadList) != 1 {
		t.Errorf("unread = %d notifications, want 1", len(unreadList))
	}

	if _, err := repo.ListForUser(alice.ID, "bogus"); err == nil {
		t.Error("expected an error for an unknown filter")
	}
}

func TestListForUserNewestFirst(t *testing.T) {
	db := setupDB(t)
	repo := NewPostgresNotificationRepository(db)
	alice := createUser(t, db, "alice")

	for i := 0; i < 3; i++ {
		db.Create(&models.Notification{RecipientID: alice.ID, Message: "n"})
	}

	list, err := repo.ListForUser(alice.ID, FilterAll)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].CreatedAt.Before(list[i].CreatedAt) {
			t.Errorf("list not ordered newest-first at index %d", i)
		}
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	db := setupDB(t)
	repo := NewPostgresNotificationRepository(db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	n := &models.Notification{RecipientID: alice.ID, Message: "hello"}
	db.Create(n)

	// Another user cannot mark it.
	ok, err := repo.MarkRead(n.ID, bob.ID)
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if ok {
		t.Error("MarkRead must fail for a foreign notification")
	}

	ok, err = repo.MarkRead(n.ID, alice.ID)
	if err != nil || !ok {
		t.Fatalf("MarkRead = (%v, %v), want (true, nil)", ok, err)
	}

	// Second call: same state, no error.
	ok, err = repo.MarkRead(n.ID, alice.ID)
	if err != nil || !ok {
		t.Fatalf("second MarkRead = (%v, %v), want (true, nil)", ok, err)
	}

	var got models.Notification
	db.First(&got, n.ID)
	if !got.IsRead {
		t.Error("notification should be read")
	}
}

func TestMarkAllRead(t *testing.T) {
	db := setupDB(t)
	repo := NewPostgresNotificationRepository(db)
	alice := createUser(t, db, "alice")

	for i := 0; i < 3; i++ {
		db.Create(&models.Notification{RecipientID: alice.ID, Message: "n"})
	}
	db.Create(&models.Notification{RecipientID: alice.ID, Message: "already", IsRead: true})

	count, err := repo.MarkAllRead(alice.ID)
	if err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	if count != 3 {
		t.Errorf("MarkAllRead count = %d, want 3", count)
	}

	remaining, err := repo.UnreadCount(alice.ID)
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if remaining != 0 {
		t.Errorf("UnreadCount = %d, want 0", remaining)
	}
}

func TestDeleteNotification(t *testing.T) {
	db := setupDB(t)
	repo := NewPostgresNotificationRepository(db)
	alice := createUser(t, db, "alice")

	n := &models.Notification{RecipientID: alice.ID, Message: "bye"}
	db.Create(n)

	if err := repo.Delete(n.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	var count int64
	db.Model(&models.Notification{}).Where("id = ?", n.ID).Count(&count)
	if count != 0 {
		t.Error("notification should be gone")
	}
}
