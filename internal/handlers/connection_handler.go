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

// ConnectionHandler handles user connection HTTP requests. Accept/reject of
// a pending request goes through the notification workflow engine, not here.
type ConnectionHandler struct {
	connectionRepository   repositories.ConnectionRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
}

// NewConnectionHandler creates a new ConnectionHandler
func NewConnectionHandler(connRepo repositories.ConnectionRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository) *ConnectionHandler {
	return &ConnectionHandler{
		connectionRepository:   connRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
	}
}

// RegisterConnectionRoutes registers connection-related routes
func (h *ConnectionHandler) RegisterConnectionRoutes(g *echo.Group) {
	g.POST("/connections/request", h.SendRequest)
	g.GET("/connections/pending", h.GetPendingRequests)
	g.GET("/connections", h.GetConnections)
	g.DELETE("/connections/:id", h.Disconnect)
}

// SendRequest creates a pending connection and notifies the addressee with
// an actionable connection request.
func (h *ConnectionHandler) SendRequest(c echo.Context) error {
	sess := getSession(c)
	if !sess.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateConnectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if sess.UserID == req.AddresseeID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot send a connection request to yourself")
	}

	addressee, err := h.userRepository.GetUserByID(req.AddresseeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Addressee user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	requester, err := h.userRepository.GetUserByID(sess.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Authenticated user not found in database")
	}

	conn := &models.Connection{
		RequesterID: requester.ID,
		AddresseeID: addressee.ID,
	}
	if err := h.connectionRepository.CreateRequest(conn); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	n := &models.Notification{
		RecipientID:   addressee.ID,
		Type:          string(notifications.KindConnectionRequest),
		Message:       fmt.Sprintf("%s wants to connect with you", requester.Name),
		RelatedID:     conn.ID,
		RelatedUserID: requester.ID,
	}
	if err := h.notificationRepository.Create(n); err != nil {
		return failJSON(c, err)
	}

	return c.JSON(http.StatusCreated, conn)
}

// GetPendingRequests lists pending connection requests addressed to the caller
func (h *ConnectionHandler) GetPendingRequests(c echo.Context) error {
	sess := getSession(c)
	if !sess.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	requests, err := h.connectionRepository.GetPendingForUser(sess.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, requests)
}

// GetConnections lists the caller's connected users
func (h *ConnectionHandler) GetConnections(c echo.Context) error {
	sess := getSession(c)
	if !sess.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	users, err := h.connectionRepository.GetConnectedUsers(sess.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	compact := make([]models.UserCompact, len(users))
	for i, u := range users {
		compact[i] = u.ToCompact()
	}
	return c.JSON(http.StatusOK, compact)
}

// Disconnect removes an accepted connection with another user
func (h *ConnectionHandler) Disconnect(c echo.Context) error {
	sess := getSession(c)
	otherID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	conn, err := h.connectionRepository.GetConnectionBetween(sess.UserID, uint(otherID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Connection not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if conn.Status != models.ConnectionAccepted {
		return echo.NewHTTPError(http.StatusBadRequest, "Users are not connected")
	}

	if err := h.connectionRepository.DeleteConnection(conn.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
