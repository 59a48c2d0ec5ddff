package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/schlyythetech/taskmaster/internal/apperrors"
	"github.com/schlyythetech/taskmaster/internal/models"
	"github.com/schlyythetech/taskmaster/internal/session"
	"gorm.io/gorm"
)

// Engine executes accept/reject transitions on actionable notifications.
// Every transition runs in a single database transaction: the entity
// mutation, the counter-notification to the original requester, and the
// deletion of the source notification commit or roll back together.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Result is the outcome of a successful workflow transition.
type Result struct {
	Message     string `json:"message"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// Accept resolves an actionable notification positively.
func (e *Engine) Accept(ctx context.Context, sess session.Context, notificationID uint) (*Result, error) {
	var result *Result
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, kind, err := e.resolve(tx, sess, notificationID)
		if err != nil {
			return err
		}
		if err := consume(tx, n.ID); err != nil {
			return err
		}
		switch kind {
		case KindJoinRequest:
			result, err = e.acceptJoin(tx, sess, n)
		case KindProjectInvite:
			result, err = e.acceptInvite(tx, sess, n)
		case KindConnectionRequest:
			result, err = e.acceptConnection(tx, sess, n)
		case KindLeaveProject:
			result, err = e.acceptLeave(tx, sess, n)
		default:
			err = apperrors.Validation("notification cannot be accepted")
		}
		return err
	})
	if err != nil {
		return nil, normalize("accept notification", err)
	}
	return result, nil
}

// Reject resolves an actionable notification negatively. No entity is
// mutated beyond withdrawing any pending state; the requester is told.
func (e *Engine) Reject(ctx context.Context, sess session.Context, notificationID uint) (*Result, error) {
	var result *Result
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, kind, err := e.resolve(tx, sess, notificationID)
		if err != nil {
			return err
		}
		if err := consume(tx, n.ID); err != nil {
			return err
		}
		switch kind {
		case KindJoinRequest:
			result, err = e.rejectJoin(tx, sess, n)
		case KindProjectInvite:
			result, err = e.rejectInvite(tx, sess, n)
		case KindConnectionRequest:
			result, err = e.rejectConnection(tx, sess, n)
		case KindLeaveProject:
			result, err = e.rejectLeave(tx, sess, n)
		default:
			err = apperrors.Validation("notification cannot be rejected")
		}
		return err
	})
	if err != nil {
		return nil, normalize("reject notification", err)
	}
	return result, nil
}

// resolve loads the notification, checks mailbox ownership, and determines
// the effective kind. Only actionable kinds proceed.
func (e *Engine) resolve(tx *gorm.DB, sess session.Context, id uint) (*models.Notification, Kind, error) {
	var n models.Notification
	if err := tx.First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, KindUnknown, apperrors.NotFound("notification")
		}
		return nil, KindUnknown, err
	}
	if n.RecipientID != sess.UserID {
		return nil, KindUnknown, apperrors.Permission("notification belongs to another user")
	}
	kind := Resolve(n.Type, n.Message)
	if !Lookup(kind).Actionable {
		return nil, KindUnknown, apperrors.Validation("notification is not actionable")
	}
	return &n, kind, nil
}

// consume deletes the source notification inside the transaction. A zero
// row count means a concurrent call resolved it first.
func consume(tx *gorm.DB, id uint) error {
	res := tx.Delete(&models.Notification{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict("notification was already resolved")
	}
	return nil
}

func (e *Engine) acceptJoin(tx *gorm.DB, sess session.Context, n *models.Notification) (*Result, error) {
	project, err := loadProject(tx, n.RelatedID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(tx, project.ID, sess.UserID); err != nil {
		return nil, err
	}
	requester, err := loadUser(tx, n.RelatedUserID)
	if err != nil {
		return nil, err
	}
	if err := activateMembership(tx, project.ID, requester.ID); err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Your request to join %s was approved", project.Name)
	if err := insertNotification(tx, requester.ID, KindJoinApproved, msg, project.ID, sess.UserID); err != nil {
		return nil, err
	}
	return &Result{
		Message:     fmt.Sprintf("%s is now a member of %s", requester.Name, project.Name),
		RedirectURL: fmt.Sprintf("/projects/%d", project.ID),
	}, nil
}

func (e *Engine) rejectJoin(tx *gorm.DB, sess session.Context, n *models.Notification) (*Result, error) {
	project, err := loadProject(tx, n.RelatedID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(tx, project.ID, sess.UserID); err != nil {
		return nil, err
	}
	requester, err := loadUser(tx, n.RelatedUserID)
	if err != nil {
		return nil, err
	}
	err = tx.Model(&models.ProjectMembership{}).
		Where("project_id = ? AND user_id = ? AND status = ?", project.ID, requester.ID, models.MembershipPending).
		Update("status", models.MembershipRejected).Error
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Your request to join %s was declined", project.Name)
	if err := insertNotification(tx, requester.ID, KindJoinRejected, msg, project.ID, sess.UserID); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Join request from %s declined", requester.Name)}, nil
}

func (e *Engine) acceptInvite(tx *gorm.DB, sess session.Context, n *models.Notification) (*Result, error) {
	project, err := loadProject(tx, n.RelatedID)
	if err != nil {
		return nil, err
	}
	if err := activateMembership(tx, project.ID, sess.UserID); err != nil {
		return nil, err
	}
	me, err := loadUser(tx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if n.RelatedUserID != 0 {
		msg := fmt.Sprintf("%s accepted your invitation to %s", me.Name, project.Name)
		if err := insertNotification(tx, n.RelatedUserID, KindInviteAccepted, msg, project.ID, sess.UserID); err != nil {
			return nil, err
		}
	}
	return &Result{
		Message:     fmt.Sprintf("You joined %s", project.Name),
		RedirectURL: fmt.Sprintf("/projects/%d", project.ID),
	}, nil
}

func (e *Engine) rejectInvite(tx *gorm.DB, sess session.Context, n *models.Notification) (*Result, error) {
	project, err := loadProject(tx, n.RelatedID)
	if err != nil {
		return nil, err
	}
	// Withdraw any membership row the invite may have seeded.
	err = tx.Where("project_id = ? AND user_id = ? AND status = ?", project.ID, sess.UserID, models.MembershipPending).
		Delete(&models.ProjectMembership{}).Error
	if err != nil {
		return nil, err
	}
	me, err := loadUser(tx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if n.RelatedUserID != 0 {
		msg := fmt.Sprintf("%s declined your invitation to %s", me.Name, project.Name)
		if err := insertNotification(tx, n.RelatedUserID, KindInviteRejected, msg, project.ID, sess.UserID); err != nil {
			return nil, err
		}
	}
	return &Result{Message: fmt.Sprintf("Invitation to %s declined", project.Name)}, nil
}

func (e *Engine) acceptConnection(tx *gorm.DB, sess session.Context, n *models.Notification) (*Result, error) {
	conn, err := loadConnection(tx, sess, n)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(conn).Update("status", models.ConnectionAccepted).Error; err != nil {
		return nil, err
	}
	me, err := loadUser(tx, sess.UserID)
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("%s accepted your connection request", me.Name)
	if err := insertNotification(tx, conn.RequesterID, KindConnectionAccepted, msg, conn.ID, sess.UserID); err != nil {
		return nil, err
	}
	return &Result{Message: "Connection accepted", RedirectURL: "/connections"}, nil
}

func (e *Engine) rejectConnection(tx *gorm.DB, sess session.Context, n *models.Notification) (*Result, error) {
	conn, err := loadConnection(tx, sess, n)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(conn).Update("status", models.ConnectionRejected).Error; err != nil {
		return nil, err
	}
	me, err := loadUser(tx, sess.UserID)
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("%s declined your connection request", me.Name)
	if err := insertNotification(tx, conn.RequesterID, KindConnectionRejected, msg, conn.ID, sess.UserID); err != nil {
		return nil, err
	}
	return &Result{Message: "Connection declined"}, nil
}

func (e *Engine) acceptLeave(tx *gorm.DB, sess session.Context, n *models.Notification) (*Result, error) {
	project, err := loadProject(tx, n.RelatedID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(tx, project.ID, sess.UserID); err != nil {
		return nil, err
	}
	leaver, err := loadUser(tx, n.RelatedUserID)
	if err != nil {
		return nil, err
	}
	err = tx.Where("project_id = ? AND user_id = ?", project.ID, leaver.ID).
		Delete(&models.ProjectMembership{}).Error
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Your request to leave %s was approved", project.Name)
	if err := insertNotification(tx, leaver.ID, KindLeaveApproved, msg, project.ID, sess.UserID); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("%s has left %s", leaver.Name, project.Name)}, nil
}

func (e *Engine) rejectLeave(tx *gorm.DB, sess session.Context, n *models.Notification) (*Result, error) {
	project, err := loadProject(tx, n.RelatedID)
	if err != nil {
		return nil, err
	}
	if err := requireManager(tx, project.ID, sess.UserID); err != nil {
		return nil, err
	}
	leaver, err := loadUser(tx, n.RelatedUserID)
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Your request to leave %s was declined", project.Name)
	if err := insertNotification(tx, leaver.ID, KindLeaveRejected, msg, project.ID, sess.UserID); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Leave request from %s declined", leaver.Name)}, nil
}

func loadProject(tx *gorm.DB, id uint) (*models.Project, error) {
	var project models.Project
	if err := tx.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("project")
		}
		return nil, err
	}
	return &project, nil
}

func loadUser(tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}

// loadConnection finds the pending connection this notification refers to,
// by id when recorded, otherwise by the (requester, addressee) pair.
func loadConnection(tx *gorm.DB, sess session.Context, n *models.Notification) (*models.Connection, error) {
	var conn models.Connection
	var err error
	if n.RelatedID != 0 {
		err = tx.First(&conn, n.RelatedID).Error
	} else {
		err = tx.Where("requester_id = ? AND addressee_id = ? AND status = ?",
			n.RelatedUserID, sess.UserID, models.ConnectionPending).First(&conn).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("connection")
		}
		return nil, err
	}
	if conn.AddresseeID != sess.UserID {
		return nil, apperrors.Permission("connection request is addressed to another user")
	}
	if conn.Status != models.ConnectionPending {
		return nil, apperrors.Conflict("connection request was already resolved")
	}
	return &conn, nil
}

// requireManager verifies the acting user holds an active owner or admin
// membership on the project. Checked inside the transaction, never cached.
func requireManager(tx *gorm.DB, projectID, userID uint) error {
	var membership models.ProjectMembership
	err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Permission("only project owners or admins can do this")
		}
		return err
	}
	if !membership.CanManageMembers() {
		return apperrors.Permission("only project owners or admins can do this")
	}
	return nil
}

// activateMembership inserts or activates the member row for the user.
func activateMembership(tx *gorm.DB, projectID, userID uint) error {
	var membership models.ProjectMembership
	err := tx.Where("project_id = ? AND user_id = ?", projectID, userID).First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&models.ProjectMembership{
			ProjectID: projectID,
			UserID:    userID,
			Role:      models.RoleMember,
			Status:    models.MembershipActive,
		}).Error
	}
	if err != nil {
		return err
	}
	return tx.Model(&membership).Update("status", models.MembershipActive).Error
}

func insertNotification(tx *gorm.DB, recipientID uint, kind Kind, message string, relatedID, relatedUserID uint) error {
	return tx.Create(&models.Notification{
		RecipientID:   recipientID,
		Type:          string(kind),
		Message:       message,
		RelatedID:     relatedID,
		RelatedUserID: relatedUserID,
	}).Error
}

// normalize passes the taxonomy through untouched and wraps anything else
// as a persistence failure.
func normalize(op string, err error) error {
	var (
		validation *apperrors.ValidationError
		notFound   *apperrors.NotFoundError
		permission *apperrors.PermissionError
		conflict   *apperrors.ConflictError
	)
	if errors.As(err, &validation) || errors.As(err, &notFound) ||
		errors.As(err, &permission) || errors.As(err, &conflict) {
		return err
	}
	return apperrors.Persistence(op, err)
}
