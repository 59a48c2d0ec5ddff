package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/schlyythetech/taskmaster/internal/models"
	"github.com/schlyythetech/taskmaster/internal/repositories"
	"gorm.io/gorm"
)

// AttachmentHandler handles attachment metadata HTTP requests. Byte
// upload/download happens against external object storage; clients use the
// object key returned here.
type AttachmentHandler struct {
	attachmentRepository repositories.AttachmentRepository
	taskRepository       repositories.TaskRepository
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(attachmentRepo repositories.AttachmentRepository, taskRepo repositories.TaskRepository) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentRepository: attachmentRepo,
		taskRepository:       taskRepo,
	}
}

// RegisterAttachmentRoutes registers attachment metadata routes
func (h *AttachmentHandler) RegisterAttachmentRoutes(g *echo.Group) {
	g.POST("/tasks/:id/attachments", h.CreateAttachment)
	g.GET("/tasks/:id/attachments", h.GetAttachments)
	g.DELETE("/attachments/:id", h.DeleteAttachment)
}

// CreateAttachment records attachment metadata for a task
func (h *AttachmentHandler) CreateAttachment(c echo.Context) error {
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

	var req models.CreateAttachmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	attachment := &models.Attachment{
		TaskID:      task.ID,
		UploaderID:  sess.UserID,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		ObjectKey:   fmt.Sprintf("tasks/%d/%s", task.ID, uuid.NewString()),
	}
	if err := h.attachmentRepository.CreateAttachment(c.Request().Context(), attachment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, attachment)
}

// GetAttachments lists attachment metadata for a task
func (h *AttachmentHandler) GetAttachments(c echo.Context) error {
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	attachments, err := h.attachmentRepository.GetAttachmentsByTask(c.Request().Context(), uint(taskID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, attachments)
}

// DeleteAttachment deletes an attachment metadata document; uploader only
func (h *AttachmentHandler) DeleteAttachment(c echo.Context) error {
	sess := getSession(c)
	if !sess.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	attachment, err := h.attachmentRepository.GetAttachmentByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Attachment not found")
	}
	if attachment.UploaderID != sess.UserID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own attachments")
	}

	if err := h.attachmentRepository.DeleteAttachment(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
