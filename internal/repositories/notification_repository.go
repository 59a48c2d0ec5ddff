package repositories

import (
	"errors"

	"github.com/schlyythetech/taskmaster/internal/apperrors"
	"github.com/schlyythetech/taskmaster/internal/models"
	"gorm.io/gorm"
)

// List filters for the mailbox.
const (
	FilterAll    = "all"
	FilterUnread = "unread"
	FilterRead   = "read"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	Create(n *models.Notification) error
	ListForUser(userID uint, filter string) ([]models.Notification, error)
	MarkRead(notificationID, userID uint) (bool, error)
	MarkAllRead(userID uint) (int64, error)
	Delete(notificationID uint) error
	UnreadCount(userID uint) (int64, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

// Create inserts a notification after verifying the recipient exists.
func (r *postgresNotificationRepository) Create(n *models.Notification) error {
	var count int64
	err := r.db.Model(&models.User{}).Where("id = ?", n.RecipientID).Count(&count).Error
	if err != nil {
		return apperrors.Persistence("check recipient", err)
	}
	if count == 0 {
		return apperrors.Validation("recipient user %d does not exist", n.RecipientID)
	}
	if err := r.db.Create(n).Error; err != nil {
		return apperrors.Persistence("create notification", err)
	}
	return nil
}

// ListForUser returns the user's notifications newest-first. The result is
// deduplicated by id so logically duplicate rows never reach the client.
func (r *postgresNotificationRepository) ListForUser(userID uint, filter string) ([]models.Notification, error) {
	q := r.db.Where("recipient_id = ?", userID)
	switch filter {
	case FilterAll, "":
	case FilterUnread:
		q = q.Where("is_read = ?", false)
	case FilterRead:
		q = q.Where("is_read = ?", true)
	default:
		return nil, apperrors.Validation("unknown filter %q", filter)
	}

	var notifications []models.Notification
	if err := q.Order("created_at DESC, id DESC").Find(&notifications).Error; err != nil {
		return nil, apperrors.Persistence("list notifications", err)
	}

	seen := make(map[uint]bool, len(notifications))
	deduped := notifications[:0]
	for _, n := range notifications {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		deduped = append(deduped, n)
	}
	return deduped, nil
}

// MarkRead flips is_read on the user's own notification. Marking an already
// read notification succeeds and reports true.
func (r *postgresNotificationRepository) MarkRead(notificationID, userID uint) (bool, error) {
	var n models.Notification
	err := r.db.Where("id = ? AND recipient_id = ?", notificationID, userID).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, apperrors.Persistence("mark read", err)
	}
	if n.IsRead {
		return true, nil
	}
	if err := r.db.Model(&n).Update("is_read", true).Error; err != nil {
		return false, apperrors.Persistence("mark read", err)
	}
	return true, nil
}

// MarkAllRead marks every unread notification of the user and returns the
// number of rows flipped.
func (r *postgresNotificationRepository) MarkAllRead(userID uint) (int64, error) {
	res := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, apperrors.Persistence("mark all read", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *postgresNotificationRepository) Delete(notificationID uint) error {
	if err := r.db.Delete(&models.Notification{}, notificationID).Error; err != nil {
		return apperrors.Persistence("delete notification", err)
	}
	return nil
}

func (r *postgresNotificationRepository) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Persistence("unread count", err)
	}
	return count, nil
}
