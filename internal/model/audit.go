package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateInvoice       = "CREATE_INVOICE"
	ActionUpdateInvoice       = "UPDATE_INVOICE"
	ActionUpdateInvoiceStatus = "UPDATE_INVOICE_STATUS"
	ActionDeleteInvoice       = "DELETE_INVOICE"
	ActionSignUp              = "SIGN_UP"
)

// AuditLog tracks Who, What, and When for invoice changes
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AgentID   *uuid.UUID `gorm:"type:uuid;index" json:"agent_id"` // Nil for system bootstrap
	Agent     *Agent     `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	Action    string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID  string     `gorm:"type:varchar(50);index" json:"entity_id"`
	Details   string     `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}
