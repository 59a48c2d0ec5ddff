package models

import (
	"time"

	"gorm.io/gorm"
)

// Connection statuses.
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionRejected = "rejected"
)

// Connection represents a connection request between two users
type Connection struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	RequesterID uint           `json:"requester_id" gorm:"index"` // User ID of the requester
	AddresseeID uint           `json:"addressee_id" gorm:"index"` // User ID of the addressee
	Status      string         `json:"status" gorm:"type:varchar(20);default:'pending'"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// CreateConnectionRequest defines the request body for requesting a connection
type CreateConnectionRequest struct {
	AddresseeID uint `json:"addressee_id" validate:"required"`
}
