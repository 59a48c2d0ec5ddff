package repositories

import (
	"fmt"

	"github.com/schlyythetech/taskmaster/internal/models"
	"gorm.io/gorm"
)

// ConnectionRepository defines the interface for user connection operations
type ConnectionRepository interface {
	CreateRequest(conn *models.Connection) error
	GetConnectionByID(id uint) (*models.Connection, error)
	GetConnectionBetween(userA, userB uint) (*models.Connection, error)
	GetPendingForUser(userID uint) ([]models.Connection, error)
	GetConnectedUsers(userID uint) ([]models.User, error)
	DeleteConnection(id uint) error
}

// PostgresConnectionRepository implements ConnectionRepository for PostgreSQL
type PostgresConnectionRepository struct {
	db *gorm.DB
}

// NewPostgresConnectionRepository creates a new PostgresConnectionRepository
func NewPostgresConnectionRepository(db *gorm.DB) *PostgresConnectionRepository {
	return &PostgresConnectionRepository{db: db}
}

// CreateRequest creates a new pending connection request. A pending or
// accepted connection between the pair, in either direction, blocks it.
func (r *PostgresConnectionRepository) CreateRequest(conn *models.Connection) error {
	var existing models.Connection
	err := r.db.Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
		conn.RequesterID, conn.AddresseeID, conn.AddresseeID, conn.RequesterID).First(&existing).Error

	if err == nil {
		if existing.Status == models.ConnectionPending {
			return fmt.Errorf("a pending connection request already exists between these users")
		} else if existing.Status == models.ConnectionAccepted {
			return fmt.Errorf("users are already connected")
		}
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	conn.Status = models.ConnectionPending
	return r.db.Create(conn).Error
}

// GetConnectionByID retrieves a connection by ID
func (r *PostgresConnectionRepository) GetConnectionByID(id uint) (*models.Connection, error) {
	var conn models.Connection
	if err := r.db.First(&conn, id).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

// GetConnectionBetween retrieves the connection between two users in either direction
func (r *PostgresConnectionRepository) GetConnectionBetween(userA, userB uint) (*models.Connection, error) {
	var conn models.Connection
	err := r.db.Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)",
		userA, userB, userB, userA).First(&conn).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

// GetPendingForUser retrieves all pending connection requests addressed to a user
func (r *PostgresConnectionRepository) GetPendingForUser(userID uint) ([]models.Connection, error) {
	var requests []models.Connection
	err := r.db.Where("addressee_id = ? AND status = ?", userID, models.ConnectionPending).
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// GetConnectedUsers retrieves all users connected to the given user
func (r *PostgresConnectionRepository) GetConnectedUsers(userID uint) ([]models.User, error) {
	var users []models.User
	sub1 := r.db.Table("connections").Select("addressee_id").
		Where("requester_id = ? AND status = ?", userID, models.ConnectionAccepted)
	sub2 := r.db.Table("connections").Select("requester_id").
		Where("addressee_id = ? AND status = ?", userID, models.ConnectionAccepted)

	if err := r.db.Where("id IN (?) OR id IN (?)", sub1, sub2).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteConnection deletes a connection by ID
func (r *PostgresConnectionRepository) DeleteConnection(id uint) error {
	return r.db.Delete(&models.Connection{}, id).Error
}
