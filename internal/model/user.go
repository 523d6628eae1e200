package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the access level of an account. It is read from the store on every
// sign-in and never taken from the client.
type Role string

const (
	RoleAgent    Role = "agent"
	RoleDirector Role = "director"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAgent || r == RoleDirector
}

// Agent is a sales user of the agency. Directors are agents with RoleDirector.
type Agent struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null;index" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Department   string    `gorm:"type:varchar(100)" json:"department"`
	Role         Role      `gorm:"type:varchar(20);not null;default:'agent'" json:"role"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"` // Never serialized
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsDirector reports whether the agent holds the director role.
func (a Agent) IsDirector() bool {
	return a.Role == RoleDirector
}
