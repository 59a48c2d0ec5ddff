package repositories

import (
	"github.com/schlyythetech/taskmaster/internal/models"
	"gorm.io/gorm"
)

// MembershipRepository defines the interface for project membership lookups
// and mutations outside the workflow engine.
type MembershipRepository interface {
	GetMembership(projectID, userID uint) (*models.ProjectMembership, error)
	GetProjectMembers(projectID uint) ([]models.ProjectMembership, error)
	CreatePending(projectID, userID uint) error
	ReopenPending(projectID, userID uint) error
	SetRole(projectID, userID uint, role string) error
	RemoveMember(projectID, userID uint) error
	GetManagers(projectID uint) ([]models.ProjectMembership, error)
}

// PostgresMembershipRepository implements MembershipRepository for PostgreSQL
type PostgresMembershipRepository struct {
	db *gorm.DB
}

// NewPostgresMembershipRepository creates a new PostgresMembershipRepository
func NewPostgresMembershipRepository(db *gorm.DB) *PostgresMembershipRepository {
	return &PostgresMembershipRepository{db: db}
}

// GetMembership retrieves the membership row for (project, user)
func (r *PostgresMembershipRepository) GetMembership(projectID, userID uint) (*models.ProjectMembership, error) {
	var m models.ProjectMembership
	if err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// GetProjectMembers retrieves all active members of a project
func (r *PostgresMembershipRepository) GetProjectMembers(projectID uint) ([]models.ProjectMembership, error) {
	var members []models.ProjectMembership
	err := r.db.Where("project_id = ? AND status = ?", projectID, models.MembershipActive).
		Order("created_at ASC").Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// CreatePending inserts a pending member row for a join request
func (r *PostgresMembershipRepository) CreatePending(projectID, userID uint) error {
	return r.db.Create(&models.ProjectMembership{
		ProjectID: projectID,
		UserID:    userID,
		Role:      models.RoleMember,
		Status:    models.MembershipPending,
	}).Error
}

// ReopenPending flips a previously rejected membership row back to pending
// so the user can request to join again.
func (r *PostgresMembershipRepository) ReopenPending(projectID, userID uint) error {
	return r.db.Model(&models.ProjectMembership{}).
		Where("project_id = ? AND user_id = ? AND status = ?", projectID, userID, models.MembershipRejected).
		Update("status", models.MembershipPending).Error
}

// SetRole changes a member's role. The owner role is assigned only at
// project creation, never through this path.
func (r *PostgresMembershipRepository) SetRole(projectID, userID uint, role string) error {
	return r.db.Model(&models.ProjectMembership{}).
		Where("project_id = ? AND user_id = ? AND role <> ?", projectID, userID, models.RoleOwner).
		Update("role", role).Error
}

// RemoveMember deletes the membership row for (project, user)
func (r *PostgresMembershipRepository) RemoveMember(projectID, userID uint) error {
	return r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMembership{}).Error
}

// GetManagers retrieves the active owner and admin memberships of a project
func (r *PostgresMembershipRepository) GetManagers(projectID uint) ([]models.ProjectMembership, error) {
	var managers []models.ProjectMembership
	err := r.db.Where("project_id = ? AND status = ? AND role IN ?",
		projectID, models.MembershipActive, []string{models.RoleOwner, models.RoleAdmin}).
		Find(&managers).Error
	if err != nil {
		return nil, err
	}
	return managers, nil
}
