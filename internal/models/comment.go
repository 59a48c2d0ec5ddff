package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a task (PostgreSQL)
type Comment struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TaskID    uint           `json:"task_id" gorm:"not null;index"`
	AuthorID  uint           `json:"author_id" gorm:"index"`
	Body      string         `json:"body"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=5000"`
}
