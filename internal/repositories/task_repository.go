package repositories

import (
	"time"

	"github.com/schlyythetech/taskmaster/internal/models"
	"gorm.io/gorm"
)

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	CreateTask(task *models.Task) error
	GetTaskByID(id uint) (*models.Task, error)
	GetTasksByProject(projectID uint) ([]models.Task, error)
	GetTasksByAssignee(userID uint) ([]models.Task, error)
	UpdateTask(task *models.Task) error
	DeleteTask(id uint) error
	CompleteTask(id uint) error
	CountCompletedByUser(userID uint) (int64, error)
}

// PostgresTaskRepository implements TaskRepository for PostgreSQL
type PostgresTaskRepository struct {
	db *gorm.DB
}

// NewPostgresTaskRepository creates a new PostgresTaskRepository
func NewPostgresTaskRepository(db *gorm.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

// CreateTask creates a new task
func (r *PostgresTaskRepository) CreateTask(task *models.Task) error {
	return r.db.Create(task).Error
}

// GetTaskByID retrieves a task by ID
func (r *PostgresTaskRepository) GetTaskByID(id uint) (*models.Task, error) {
	var task models.Task
	if err := r.db.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTasksByProject retrieves all tasks of a project, newest first
func (r *PostgresTaskRepository) GetTasksByProject(projectID uint) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Where("project_id = ?", projectID).Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTasksByAssignee retrieves all tasks assigned to a user
func (r *PostgresTaskRepository) GetTasksByAssignee(userID uint) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Where("assignee_id = ?", userID).Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateTask updates an existing task
func (r *PostgresTaskRepository) UpdateTask(task *models.Task) error {
	return r.db.Save(task).Error
}

// DeleteTask deletes a task and its comments
func (r *PostgresTaskRepository) DeleteTask(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Task{}, id).Error
	})
}

// CompleteTask marks a task done with a completion timestamp
func (r *PostgresTaskRepository) CompleteTask(id uint) error {
	now := time.Now()
	return r.db.Model(&models.Task{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": models.TaskDone, "completed_at": &now}).Error
}

// CountCompletedByUser counts tasks the user has completed as assignee
func (r *PostgresTaskRepository) CountCompletedByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Where("assignee_id = ? AND status = ?", userID, models.TaskDone).
		Count(&count).Error
	return count, err
}
