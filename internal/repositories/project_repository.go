package repositories

import (
	"github.com/schlyythetech/taskmaster/internal/models"
	"gorm.io/gorm"
)

// ProjectRepository defines the interface for project data operations
type ProjectRepository interface {
	CreateProject(project *models.Project, ownerID uint) error
	GetProjectByID(id uint) (*models.Project, error)
	GetProjectsForUser(userID uint) ([]models.Project, error)
	UpdateProject(project *models.Project) error
	DeleteProject(id uint) error
}

// PostgresProjectRepository implements ProjectRepository for PostgreSQL
type PostgresProjectRepository struct {
	db *gorm.DB
}

// NewPostgresProjectRepository creates a new PostgresProjectRepository
func NewPostgresProjectRepository(db *gorm.DB) *PostgresProjectRepository {
	return &PostgresProjectRepository{db: db}
}

// CreateProject creates the project and its owner membership atomically.
// The owner row is the only one with role owner; further owner rows are
// never inserted for the project.
func (r *PostgresProjectRepository) CreateProject(project *models.Project, ownerID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		project.OwnerID = ownerID
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		return tx.Create(&models.ProjectMembership{
			ProjectID: project.ID,
			UserID:    ownerID,
			Role:      models.RoleOwner,
			Status:    models.MembershipActive,
		}).Error
	})
}

// GetProjectByID retrieves a project by ID
func (r *PostgresProjectRepository) GetProjectByID(id uint) (*models.Project, error) {
	var project models.Project
	if err := r.db.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProjectsForUser retrieves all projects the user is an active member of
func (r *PostgresProjectRepository) GetProjectsForUser(userID uint) ([]models.Project, error) {
	var projects []models.Project
	sub := r.db.Table("project_memberships").Select("project_id").
		Where("user_id = ? AND status = ?", userID, models.MembershipActive)
	if err := r.db.Where("id IN (?)", sub).Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateProject updates an existing project
func (r *PostgresProjectRepository) UpdateProject(project *models.Project) error {
	return r.db.Save(project).Error
}

// DeleteProject deletes a project and its memberships
func (r *PostgresProjectRepository) DeleteProject(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMembership{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	})
}
