package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRegister             AuditAction = "REGISTER"
	AuditActionAuthenticate         AuditAction = "AUTHENTICATE"
	AuditActionActivate             AuditAction = "ACTIVATE"
	AuditActionRequestPasswordReset AuditAction = "REQUEST_PASSWORD_RESET"
	AuditActionResetPassword        AuditAction = "RESET_PASSWORD"
	AuditActionChangePassword       AuditAction = "CHANGE_PASSWORD"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	MerchantID   *uuid.UUID  `json:"merchant_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
