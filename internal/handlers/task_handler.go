package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/schlyythetech/taskmaster/internal/apperrors"
	"github.com/schlyythetech/taskmaster/internal/models"
	"github.com/schlyythetech/taskmaster/internal/notifications"
	"github.com/schlyythetech/taskmaster/internal/repositories"
	"gorm.io/gorm"
)

// Milestones at which completing a task earns an achievement notification.
var achievementMilestones = map[int64]string{
	1:   "First task completed!",
	10:  "10 tasks completed",
	50:  "50 tasks completed",
	100: "100 tasks completed",
}

// TaskHandler handles task-related HTTP requests. The attachment repository
// is nil when no document store is configured; task deletion then skips
// attachment metadata cleanup.
type TaskHandler struct {
	taskRepository         repositories.TaskRepository
	projectRepository      repositories.ProjectRepository
	membershipRepository   repositories.MembershipRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	attachmentRepository   repositories.AttachmentRepository
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskRepo repositories.TaskRepository, projectRepo repositories.ProjectRepository, membershipRepo repositories.MembershipRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository, attachmentRepo repositories.AttachmentRepository) *TaskHandler {
	return &TaskHandler{
		taskRepository:         taskRepo,
		projectRepository:      projectRepo,
		membershipRepository:   membershipRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		attachmentRepository:   attachmentRepo,
	}
}

// RegisterTaskRoutes registers task-related routes
func (h *TaskHandler) RegisterTaskRoutes(g *echo.Group) {
	g.POST("/projects/:id/tasks", h.CreateTask)
	g.GET("/projects/:id/tasks", h.GetProjectTasks)
	g.GET("/tasks/assigned", h.GetAssignedTasks)
	g.GET("/tasks/:id", h.GetTask)
	g.PUT("/tasks/:id", h.UpdateTask)
	g.DELETE("/tasks/:id", h.DeleteTask)
	g.PUT("/tasks/:id/assign", h.AssignTask)
	g.PUT("/tasks/:id/complete", h.CompleteTask)
}

// CreateTask creates a task in a project; members only. Assigning at
// creation notifies the assignee.
func (h *TaskHandler) CreateTask(c echo.Context) error {
	sess := getSession(c)
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
	}
	if err := h.requireMember(uint(projectID), sess.UserID); err != nil {
		return err
	}

	var req models.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task := &models.Task{
		ProjectID:   uint(projectID),
		CreatorID:   sess.UserID,
		AssigneeID:  req.AssigneeID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskOpen,
		DueDate:     req.DueDate,
	}
	if err := h.taskRepository.CreateTask(task); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if task.AssigneeID != 0 && task.AssigneeID != sess.UserID {
		if err := h.notifyAssigned(task, sess.UserID); err != nil {
			return failJSON(c, err)
		}
	}
	return c.JSON(http.StatusCreated, task)
}

// GetProjectTasks lists the tasks of a project
func (h *TaskHandler) GetProjectTasks(c echo.Context) error {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
	}

	tasks, err := h.taskRepository.GetTasksByProject(uint(projectID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tasks)
}

// GetAssignedTasks lists tasks assigned to the caller
func (h *TaskHandler) GetAssignedTasks(c echo.Context) error {
	sess := getSession(c)
	if !sess.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	tasks, err := h.taskRepository.GetTasksByAssignee(sess.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tasks)
}

// GetTask returns a single task
func (h *TaskHandler) GetTask(c echo.Context) error {
	task, err := h.loadTask(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateTask updates task fields; members only
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	sess := getSession(c)
	task, err := h.loadTask(c)
	if err != nil {
		return err
	}
	if err := h.requireMember(task.ProjectID, sess.UserID); err != nil {
		return err
	}

	var req models.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Title != "" {
		task.Title = req.Title
	}
	if req.Description != "" {
		task.Description = req.Description
	}
	if req.Status != "" {
		task.Status = req.Status
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if err := h.taskRepository.UpdateTask(task); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, task)
}

// DeleteTask deletes a task; creator or project manager only
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	sess := getSession(c)
	task, err := h.loadTask(c)
	if err != nil {
		return err
	}
	if task.CreatorID != sess.UserID {
		membership, merr := h.membershipRepository.GetMembership(task.ProjectID, sess.UserID)
		if merr != nil || !membership.CanManageMembers() {
			return echo.NewHTTPError(http.StatusForbidden, "Only the task creator or a project manager can delete this task")
		}
	}
	if err := h.taskRepository.DeleteTask(task.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if h.attachmentRepository != nil {
		if err := h.attachmentRepository.DeleteAttachmentsByTask(c.Request().Context(), task.ID); err != nil {
			return failJSON(c, apperrors.Persistence("delete task attachments", err))
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// AssignTask assigns a task to a project member and notifies them
func (h *TaskHandler) AssignTask(c echo.Context) error {
	sess := getSession(c)
	task, err := h.loadTask(c)
	if err != nil {
		return err
	}
	if err := h.requireMember(task.ProjectID, sess.UserID); err != nil {
		return err
	}

	var req models.AssignTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.requireMember(task.ProjectID, req.AssigneeID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Assignee is not a member of this project")
	}

	task.AssigneeID = req.AssigneeID
	if task.Status == models.TaskOpen {
		task.Status = models.TaskInProgress
	}
	if err := h.taskRepository.UpdateTask(task); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if task.AssigneeID != sess.UserID {
		if err := h.notifyAssigned(task, sess.UserID); err != nil {
			return failJSON(c, err)
		}
	}
	return c.JSON(http.StatusOK, task)
}

// CompleteTask marks a task done, notifies the project owner, and awards
// milestone achievements to the completer.
func (h *TaskHandler) CompleteTask(c echo.Context) error {
	sess := getSession(c)
	task, err := h.loadTask(c)
	if err != nil {
		return err
	}
	if err := h.requireMember(task.ProjectID, sess.UserID); err != nil {
		return err
	}
	if task.Status == models.TaskDone {
		return echo.NewHTTPError(http.StatusConflict, "Task is already completed")
	}

	if err := h.taskRepository.CompleteTask(task.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	completer, err := h.userRepository.GetUserByID(sess.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Authenticated user not found in database")
	}

	if project, perr := h.projectRepository.GetProjectByID(task.ProjectID); perr == nil && project.OwnerID != sess.UserID {
		err := h.notificationRepository.Create(&models.Notification{
			RecipientID:   project.OwnerID,
			Type:          string(notifications.KindTaskCompleted),
			Message:       fmt.Sprintf("%s completed the task %q", completer.Name, task.Title),
			RelatedID:     task.ID,
			RelatedUserID: sess.UserID,
		})
		if err != nil {
			return failJSON(c, err)
		}
	}

	if task.AssigneeID == sess.UserID {
		if count, cerr := h.taskRepository.CountCompletedByUser(sess.UserID); cerr == nil {
			if title, ok := achievementMilestones[count]; ok {
				err := h.notificationRepository.Create(&models.Notification{
					RecipientID: sess.UserID,
					Type:        string(notifications.KindAchievement),
					Message:     title,
					RelatedID:   task.ID,
				})
				if err != nil {
					return failJSON(c, err)
				}
			}
		}
	}

	task.Status = models.TaskDone
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) notifyAssigned(task *models.Task, actorID uint) error {
	actor, err := h.userRepository.GetUserByID(actorID)
	if err != nil {
		return apperrors.Persistence("load assigning user", err)
	}
	return h.notificationRepository.Create(&models.Notification{
		RecipientID:   task.AssigneeID,
		Type:          string(notifications.KindTaskAssigned),
		Message:       fmt.Sprintf("%s assigned you the task %q", actor.Name, task.Title),
		RelatedID:     task.ID,
		RelatedUserID: actorID,
	})
}

func (h *TaskHandler) loadTask(c echo.Context) (*models.Task, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}
	task, err := h.taskRepository.GetTaskByID(uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Task not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return task, nil
}

func (h *TaskHandler) requireMember(projectID, userID uint) error {
	membership, err := h.membershipRepository.GetMembership(projectID, userID)
	if err != nil || membership.Status != models.MembershipActive {
		return echo.NewHTTPError(http.StatusForbidden, "You are not a member of this project")
	}
	return nil
}
