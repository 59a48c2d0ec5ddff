package models

import "time"

// Membership roles, highest to lowest.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Membership statuses.
const (
	MembershipActive   = "active"
	MembershipPending  = "pending"
	MembershipRejected = "rejected"
)

// ProjectMembership represents a user's membership in a project.
// A project has exactly one owner row; role/status transitions on other
// members may only be performed by an owner or admin.
type ProjectMembership struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProjectID uint      `json:"project_id" gorm:"not null;uniqueIndex:uk_project_user"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:uk_project_user;index"`
	Role      string    `json:"role" gorm:"type:varchar(10);not null;default:'member'"`
	Status    string    `json:"status" gorm:"type:varchar(10);not null;default:'pending'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanManageMembers reports whether the membership grants the right to
// approve, reject, or remove other members.
func (m *ProjectMembership) CanManageMembers() bool {
	return m.Status == MembershipActive && (m.Role == RoleOwner || m.Role == RoleAdmin)
}
