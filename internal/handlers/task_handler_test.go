package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/schlyythetech/taskmaster/internal/models"
	"github.com/schlyythetech/taskmaster/internal/notifications"
	"github.com/schlyythetech/taskmaster/internal/repositories"
	"gorm.io/gorm"
)

// attachmentRecorder records attachment cleanup calls. Only the method used
// by task deletion is implemented.
type attachmentRecorder struct {
	repositories.AttachmentRepository
	deletedTasks []uint
}

func (r *attachmentRecorder) DeleteAttachmentsByTask(_ context.Context, taskID uint) error {
	r.deletedTasks = append(r.deletedTasks, taskID)
	return nil
}

func setupTaskServer(t *testing.T, attachmentRepo repositories.AttachmentRepository) (*echo.Echo, *gorm.DB) {
	t.Helper()

	db := openTestDB(t)
	e, api := newTestServer(t)

	taskRepo := repositories.NewPostgresTaskRepository(db)
	projectRepo := repositories.NewPostgresProjectRepository(db)
	membershipRepo := repositories.NewPostgresMembershipRepository(db)
	userRepo := repositories.NewPostgresUserRepository(db)
	notifRepo := repositories.NewPostgresNotificationRepository(db)
	handler := NewTaskHandler(taskRepo, projectRepo, membershipRepo, userRepo, notifRepo, attachmentRepo)
	handler.RegisterTaskRoutes(api)

	return e, db
}

func TestCreateTaskNotifiesAssignee(t *testing.T) {
	e, db := setupTaskServer(t, nil)
	owner := seedUser(t, db, "owner")
	member := seedUser(t, db, "member")
	project := seedProject(t, db, owner, "Apollo")
	db.Create(&models.ProjectMembership{
		ProjectID: project.ID, UserID: member.ID,
		Role: models.RoleMember, Status: models.MembershipActive,
	})

	rec := doRequest(e, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/tasks", project.ID), owner.ID,
		models.CreateTaskRequest{Title: "Write docs", AssigneeID: member.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var n models.Notification
	if err := db.Where("type = ?", string(notifications.KindTaskAssigned)).First(&n).Error; err != nil {
		t.Fatalf("expected a task_assigned notification: %v", err)
	}
	if n.RecipientID != member.ID {
		t.Errorf("recipient = %d, want assignee %d", n.RecipientID, member.ID)
	}
}

func TestCreateTaskAssigneeMissingSurfacesError(t *testing.T) {
	e, db := setupTaskServer(t, nil)
	owner := seedUser(t, db, "owner")
	project := seedProject(t, db, owner, "Apollo")

	rec := doRequest(e, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/tasks", project.ID), owner.ID,
		models.CreateTaskRequest{Title: "Write docs", AssigneeID: 9999})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteTaskCleansAttachments(t *testing.T) {
	recorder := &attachmentRecorder{}
	e, db := setupTaskServer(t, recorder)
	owner := seedUser(t, db, "owner")
	project := seedProject(t, db, owner, "Apollo")

	task := &models.Task{ProjectID: project.ID, CreatorID: owner.ID, Title: "Write docs", Status: models.TaskOpen}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	rec := doRequest(e, http.MethodDelete, fmt.Sprintf("/api/v1/tasks/%d", task.ID), owner.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body.String())
	}
	if len(recorder.deletedTasks) != 1 || recorder.deletedTasks[0] != task.ID {
		t.Errorf("attachment cleanup calls = %v, want [%d]", recorder.deletedTasks, task.ID)
	}
}
