package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/schlyythetech/taskmaster/internal/models"
	"github.com/schlyythetech/taskmaster/internal/notifications"
	"github.com/schlyythetech/taskmaster/internal/repositories"
)

// NotificationHandler is the mailbox API boundary. Listing decorates each
// notification with the registry's rendering metadata; accept/reject
// delegate to the workflow engine.
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	engine                 *notifications.Engine
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository, engine *notifications.Engine) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		engine:                 engine,
	}
}

// RegisterNotificationRoutes registers mailbox routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.POST("/notifications", h.PostAction)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
}

// EnrichedNotification decorates a notification with rendering metadata
// and the involved user's compact profile.
type EnrichedNotification struct {
	models.Notification
	Kind       string             `json:"kind"`
	Actionable bool               `json:"actionable"`
	Icon       string             `json:"icon"`
	Label      string             `json:"label"`
	NavURL     string             `json:"nav_url,omitempty"`
	Actor      models.UserCompact `json:"actor,omitempty"`
}

func (h *NotificationHandler) enrichNotifications(items []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(items))
	userCache := make(map[uint]models.UserCompact)

	for i, n := range items {
		kind := notifications.Resolve(n.Type, n.Message)
		meta := notifications.Lookup(kind)
		enriched[i] = EnrichedNotification{
			Notification: n,
			Kind:         string(kind),
			Actionable:   meta.Actionable,
			Icon:         meta.Icon,
			Label:        meta.Label,
			NavURL:       meta.NavURL(n.RelatedID),
		}
		if n.RelatedUserID == 0 {
			continue
		}
		if actor, ok := userCache[n.RelatedUserID]; ok {
			enriched[i].Actor = actor
		} else if user, err := h.userRepository.GetUserByID(n.RelatedUserID); err == nil {
			compact := user.ToCompact()
			userCache[n.RelatedUserID] = compact
			enriched[i].Actor = compact
		}
	}
	return enriched
}

// GetNotifications returns the caller's mailbox, newest first.
// Supported query params: action=get (optional), filter=all|unread|read.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	sess := getSession(c)
	if !sess.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if action := c.QueryParam("action"); action != "" && action != "get" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Unknown action"})
	}

	filter := c.QueryParam("filter")
	if filter == "" {
		filter = repositories.FilterAll
	}

	items, err := h.notificationRepository.ListForUser(sess.UserID, filter)
	if err != nil {
		return failJSON(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"notifications": h.enrichNotifications(items),
	})
}

// PostAction dispatches POST /notifications?action=... to the matching
// mailbox or workflow operation.
func (h *NotificationHandler) PostAction(c echo.Context) error {
	sess := getSession(c)
	if !sess.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	action := c.QueryParam("action")
	if action == "mark_all_read" {
		count, err := h.notificationRepository.MarkAllRead(sess.UserID)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "count": count})
	}

	var req models.NotificationActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	switch action {
	case "accept":
		result, err := h.engine.Accept(c.Request().Context(), sess, req.NotificationID)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"success":      true,
			"message":      result.Message,
			"redirect_url": result.RedirectURL,
		})
	case "reject":
		result, err := h.engine.Reject(c.Request().Context(), sess, req.NotificationID)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"message": result.Message,
		})
	case "mark_read":
		ok, err := h.notificationRepository.MarkRead(req.NotificationID, sess.UserID)
		if err != nil {
			return failJSON(c, err)
		}
		if !ok {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Notification not found"})
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Unknown action"})
	}
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	sess := getSession(c)
	if !sess.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.notificationRepository.UnreadCount(sess.UserID)
	if err != nil {
		return failJSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "count": count})
}
