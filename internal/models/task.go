package models

import (
	"time"

	"gorm.io/gorm"
)

// Task statuses.
const (
	TaskOpen       = "open"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
)

type Task struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	ProjectID   uint           `json:"project_id" gorm:"not null;index"`
	CreatorID   uint           `json:"creator_id" gorm:"index"`
	AssigneeID  uint           `json:"assignee_id" gorm:"index"` // zero means unassigned
	Title       string         `json:"title" gorm:"size:200"`
	Description string         `json:"description"`
	Status      string         `json:"status" gorm:"type:varchar(15);default:'open';index"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	AssigneeID  uint       `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type UpdateTaskRequest struct {
	Title       string     `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description string     `json:"description,omitempty" validate:"omitempty,max=5000"`
	Status      string     `json:"status,omitempty" validate:"omitempty,oneof=open in_progress done"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// AssignTaskRequest defines the request body for assigning a task
type AssignTaskRequest struct {
	AssigneeID uint `json:"assignee_id" validate:"required"`
}
