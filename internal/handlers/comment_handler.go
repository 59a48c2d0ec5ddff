package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/schlyythetech/taskmaster/internal/models"
	"github.com/schlyythetech/taskmaster/internal/notifications"
	"github.com/schlyythetech/taskmaster/internal/repositories"
	"gorm.io/gorm"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	commentRepository      repositories.CommentRepository
	taskRepository         repositories.TaskRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, taskRepo repositories.TaskRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository) *CommentHandler {
	return &CommentHandler{
		commentRepository:      commentRepo,
		taskRepository:         taskRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/tasks/:id/comments", h.CreateComment)
	g.GET("/tasks/:id/comments", h.GetComments)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// EnrichedComment includes author info
type EnrichedComment struct {
	models.Comment
	Author models.UserCompact `json:"author"`
}

// CreateComment adds a comment to a task and notifies the task's creator
// and assignee.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	sess := getSession(c)
	if !sess.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}
	task, err := h.taskRepository.GetTaskByID(uint(taskID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Task not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment := &models.Comment{
		TaskID:   task.ID,
		AuthorID: sess.UserID,
		Body:     req.Body,
	}
	if err := h.commentRepository.CreateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	author, err := h.userRepository.GetUserByID(sess.UserID)
	if err == nil {
		message := fmt.Sprintf("%s commented on the task %q", author.Name, task.Title)
		for _, recipient := range []uint{task.CreatorID, task.AssigneeID} {
			if recipient == 0 || recipient == sess.UserID {
				continue
			}
			nerr := h.notificationRepository.Create(&models.Notification{
				RecipientID:   recipient,
				Type:          string(notifications.KindComment),
				Message:       message,
				RelatedID:     task.ID,
				RelatedUserID: sess.UserID,
			})
			if nerr != nil {
				return failJSON(c, nerr)
			}
			// Creator and assignee can be the same user
			if task.CreatorID == task.AssigneeID {
				break
			}
		}
	}

	return c.JSON(http.StatusCreated, comment)
}

// GetComments lists the comments on a task with author info
func (h *CommentHandler) GetComments(c echo.Context) error {
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	comments, err := h.commentRepository.GetCommentsByTask(uint(taskID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	enriched := make([]EnrichedComment, len(comments))
	userCache := make(map[uint]models.UserCompact)
	for i, comment := range comments {
		enriched[i] = EnrichedComment{Comment: comment}
		if author, ok := userCache[comment.AuthorID]; ok {
			enriched[i].Author = author
		} else if user, uerr := h.userRepository.GetUserByID(comment.AuthorID); uerr == nil {
			compact := user.ToCompact()
			userCache[comment.AuthorID] = compact
			enriched[i].Author = compact
		}
	}
	return c.JSON(http.StatusOK, enriched)
}

// DeleteComment deletes a comment; the author only
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	sess := getSession(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	comment, err := h.commentRepository.GetCommentByID(uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if comment.AuthorID != sess.UserID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own comments")
	}

	if err := h.commentRepository.DeleteComment(comment.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
