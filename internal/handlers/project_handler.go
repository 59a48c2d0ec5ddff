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

// ProjectHandler handles project and membership HTTP requests
type ProjectHandler struct {
	projectRepository      repositories.ProjectRepository
	membershipRepository   repositories.MembershipRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectRepo repositories.ProjectRepository, membershipRepo repositories.MembershipRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository) *ProjectHandler {
	return &ProjectHandler{
		projectRepository:      projectRepo,
		membershipRepository:   membershipRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
	}
}

// RegisterProjectRoutes registers project-related routes
func (h *ProjectHandler) RegisterProjectRoutes(g *echo.Group) {
	g.POST("/projects", h.CreateProject)
	g.GET("/projects", h.GetMyProjects)
	g.GET("/projects/:id", h.GetProject)
	g.PUT("/projects/:id", h.UpdateProject)
	g.DELETE("/projects/:id", h.DeleteProject)
	g.GET("/projects/:id/members", h.GetMembers)
	g.POST("/projects/:id/join", h.RequestJoin)
	g.POST("/projects/:id/leave", h.RequestLeave)
	g.POST("/projects/:id/invite", h.InviteMember)
	g.DELETE("/projects/:id/members/:userID", h.RemoveMember)
}

// CreateProject creates a project with the caller as its single owner
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	sess := getSession(c)
	if !sess.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	project := &models.Project{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.projectRepository.CreateProject(project, sess.UserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, project)
}

// GetMyProjects lists projects the caller is an active member of
func (h *ProjectHandler) GetMyProjects(c echo.Context) error {
	sess := getSession(c)
	if !sess.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	projects, err := h.projectRepository.GetProjectsForUser(sess.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, projects)
}

// GetProject returns a single project
func (h *ProjectHandler) GetProject(c echo.Context) error {
	project, err := h.loadProject(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// UpdateProject updates project fields; owner/admin only
func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	sess := getSession(c)
	project, err := h.loadProject(c)
	if err != nil {
		return err
	}
	if err := h.requireManager(project.ID, sess.UserID); err != nil {
		return err
	}

	var req models.UpdateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if err := h.projectRepository.UpdateProject(project); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, project)
}

// DeleteProject deletes a project; owner only
func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	sess := getSession(c)
	project, err := h.loadProject(c)
	if err != nil {
		return err
	}
	if project.OwnerID != sess.UserID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the project owner can delete the project")
	}
	if err := h.projectRepository.DeleteProject(project.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// MemberResponse pairs a membership row with the user's compact profile
type MemberResponse struct {
	models.ProjectMembership
	User models.UserCompact `json:"user"`
}

// GetMembers lists the active members of a project
func (h *ProjectHandler) GetMembers(c echo.Context) error {
	project, err := h.loadProject(c)
	if err != nil {
		return err
	}

	members, err := h.membershipRepository.GetProjectMembers(project.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]MemberResponse, len(members))
	for i, m := range members {
		resp[i] = MemberResponse{ProjectMembership: m}
		if user, uerr := h.userRepository.GetUserByID(m.UserID); uerr == nil {
			resp[i].User = user.ToCompact()
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// RequestJoin records a pending membership and notifies every owner/admin
// with an actionable join request.
func (h *ProjectHandler) RequestJoin(c echo.Context) error {
	sess := getSession(c)
	if !sess.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	project, err := h.loadProject(c)
	if err != nil {
		return err
	}

	existing, merr := h.membershipRepository.GetMembership(project.ID, sess.UserID)
	switch {
	case merr == nil && existing.Status == models.MembershipActive:
		return echo.NewHTTPError(http.StatusConflict, "You are already a member of this project")
	case merr == nil && existing.Status == models.MembershipPending:
		return echo.NewHTTPError(http.StatusConflict, "A join request is already pending")
	case merr == nil:
		// A rejected row is revived rather than re-inserted, which would
		// trip the unique (project, user) index.
		if err := h.membershipRepository.ReopenPending(project.ID, sess.UserID); err != nil {
			return failJSON(c, apperrors.Persistence("reopen membership", err))
		}
	default:
		if err := h.membershipRepository.CreatePending(project.ID, sess.UserID); err != nil {
			return failJSON(c, apperrors.Persistence("create membership", err))
		}
	}

	requester, err := h.userRepository.GetUserByID(sess.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Authenticated user not found in database")
	}

	managers, err := h.membershipRepository.GetManagers(project.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	message := fmt.Sprintf("%s requested to join %s", requester.Name, project.Name)
	for _, m := range managers {
		n := &models.Notification{
			RecipientID:   m.UserID,
			Type:          string(notifications.KindJoinRequest),
			Message:       message,
			RelatedID:     project.ID,
			RelatedUserID: requester.ID,
		}
		if err := h.notificationRepository.Create(n); err != nil {
			return failJSON(c, err)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Join request sent"})
}

// RequestLeave notifies the project managers with an actionable leave request
func (h *ProjectHandler) RequestLeave(c echo.Context) error {
	sess := getSession(c)
	if !sess.Authenticated() {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	project, err := h.loadProject(c)
	if err != nil {
		return err
	}

	membership, merr := h.membershipRepository.GetMembership(project.ID, sess.UserID)
	if merr != nil || membership.Status != models.MembershipActive {
		return echo.NewHTTPError(http.StatusBadRequest, "You are not a member of this project")
	}
	if membership.Role == models.RoleOwner {
		return echo.NewHTTPError(http.StatusBadRequest, "The project owner cannot leave the project")
	}

	leaver, err := h.userRepository.GetUserByID(sess.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Authenticated user not found in database")
	}

	managers, err := h.membershipRepository.GetManagers(project.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	message := fmt.Sprintf("%s requested to leave %s", leaver.Name, project.Name)
	for _, m := range managers {
		if m.UserID == sess.UserID {
			continue
		}
		n := &models.Notification{
			RecipientID:   m.UserID,
			Type:          string(notifications.KindLeaveProject),
			Message:       message,
			RelatedID:     project.ID,
			RelatedUserID: leaver.ID,
		}
		if err := h.notificationRepository.Create(n); err != nil {
			return failJSON(c, err)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Leave request sent"})
}

// InviteMember sends a project invite to a user; owner/admin only
func (h *ProjectHandler) InviteMember(c echo.Context) error {
	sess := getSession(c)
	project, err := h.loadProject(c)
	if err != nil {
		return err
	}
	if err := h.requireManager(project.ID, sess.UserID); err != nil {
		return err
	}

	var req models.InviteMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	invitee, err := h.userRepository.GetUserByID(req.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Invited user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if existing, merr := h.membershipRepository.GetMembership(project.ID, invitee.ID); merr == nil &&
		existing.Status == models.MembershipActive {
		return echo.NewHTTPError(http.StatusConflict, "User is already a member of this project")
	}

	inviter, err := h.userRepository.GetUserByID(sess.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Authenticated user not found in database")
	}

	n := &models.Notification{
		RecipientID:   invitee.ID,
		Type:          string(notifications.KindProjectInvite),
		Message:       fmt.Sprintf("%s invited you to join %s", inviter.Name, project.Name),
		RelatedID:     project.ID,
		RelatedUserID: inviter.ID,
	}
	if err := h.notificationRepository.Create(n); err != nil {
		return failJSON(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Invitation sent"})
}

// RemoveMember removes a member from a project; owner/admin only, owner
// rows untouchable
func (h *ProjectHandler) RemoveMember(c echo.Context) error {
	sess := getSession(c)
	project, err := h.loadProject(c)
	if err != nil {
		return err
	}
	if err := h.requireManager(project.ID, sess.UserID); err != nil {
		return err
	}

	targetID, err := strconv.ParseUint(c.Param("userID"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	if uint(targetID) == project.OwnerID {
		return echo.NewHTTPError(http.StatusBadRequest, "The project owner cannot be removed")
	}

	if err := h.membershipRepository.RemoveMember(project.ID, uint(targetID)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProjectHandler) loadProject(c echo.Context) (*models.Project, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
	}
	project, err := h.projectRepository.GetProjectByID(uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Project not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return project, nil
}

func (h *ProjectHandler) requireManager(projectID, userID uint) error {
	membership, err := h.membershipRepository.GetMembership(projectID, userID)
	if err != nil || !membership.CanManageMembers() {
		return echo.NewHTTPError(http.StatusForbidden, "Only project owners or admins can do this")
	}
	return nil
}
