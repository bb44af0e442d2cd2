package domain

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetLink is a single-use credential that lets a merchant set a new
// password. Only a hash of the key is stored, the key itself travels in the
// e-mailed link.
type PasswordResetLink struct {
	ID             uuid.UUID  `json:"id"`
	MerchantID     uuid.UUID  `json:"merchant_id"`
	KeyHash        string     `json:"-"`
	RequesterIPEnc *string    `json:"-"` // AES-GCM, hex
	IssuedAt       time.Time  `json:"issued_at"`
	UsedAt         *time.Time `json:"used_at,omitempty"`
}

// IsUsed returns true once the link has been redeemed.
func (l *PasswordResetLink) IsUsed() bool {
	return l.UsedAt != nil
}
