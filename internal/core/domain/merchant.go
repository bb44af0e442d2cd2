package domain

import (
	"time"

	"github.com/google/uuid"
)

// Merchant is a registered shop owner and the subject of every session.
//
// PasswordHash stays nil until the account is activated. While activation is
// pending, PendingActivationHash holds the hash of the one-time token that
// was e-mailed at registration.
type Merchant struct {
	ID                    uuid.UUID  `json:"id"`
	EmailAddress          string     `json:"email_address"`
	Username              string     `json:"username"`
	PasswordHash          *string    `json:"-"`
	PasswordSalt          string     `json:"-"`
	PendingActivationHash *string    `json:"-"`
	ActivatedAt           *time.Time `json:"activated_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// IsActivated returns true once the merchant has chosen a password.
func (m *Merchant) IsActivated() bool {
	return m.ActivatedAt != nil
}

// HasPassword reports whether the merchant can authenticate at all.
func (m *Merchant) HasPassword() bool {
	return m.PasswordHash != nil && *m.PasswordHash != ""
}

// Public strips credential material.
func (m *Merchant) Public() PublicMerchant {
	return PublicMerchant{
		ID:           m.ID,
		Username:     m.Username,
		EmailAddress: m.EmailAddress,
	}
}

// PublicMerchant is the only merchant shape that leaves the service.
type PublicMerchant struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address"`
}
