package models

import "time"

// Notification represents an event relevant to a user (PostgreSQL).
// RelatedID points at the subject entity (project, task, connection);
// its meaning depends on Type. RelatedUserID is the second user involved
// in the event, e.g. the requester of a join request.
type Notification struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	RecipientID   uint      `json:"recipient_id" gorm:"not null;index"`
	Type          string    `json:"type" gorm:"size:30;index"`
	Message       string    `json:"message"`
	RelatedID     uint      `json:"related_id,omitempty"`
	RelatedUserID uint      `json:"related_user_id,omitempty"`
	IsRead        bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt     time.Time `json:"created_at" gorm:"index"`
}

// NotificationActionRequest defines the request body for accept/reject/mark_read
type NotificationActionRequest struct {
	NotificationID uint `json:"notification_id" validate:"required"`
}
