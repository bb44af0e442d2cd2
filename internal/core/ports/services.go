package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"dgbcommerce-api/internal/core/domain"

	"github.com/google/uuid"
)

// Session token verification failures. Callers outside the gate only need to
// know the token was rejected, the reason is for logs.
var (
	ErrTokenMalformed    = errors.New("session token malformed")
	ErrTokenBadSignature = errors.New("session token signature mismatch")
	ErrTokenExpired      = errors.New("session token expired")
)

// SecretService produces salts, one-time tokens and digests.
type SecretService interface {
	GenerateSalt() (string, error)
	GenerateRandomToken(length int) (string, error)
	// HashPassword is deterministic for a given salt and plaintext.
	HashPassword(salt, plaintext string) string
	HashToken(token string) string
	Equal(a, b string) bool
}

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// TokenService issues and verifies stateless session tokens.
type TokenService interface {
	Issue(merchantID uuid.UUID) (string, time.Time, error)
	Verify(token string) (uuid.UUID, error)
}

// --- Service Ports (Business Logic) ---

// AuthResult is what a successful authentication hands back to the caller.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Merchant  domain.PublicMerchant
}

// AuthService turns credentials into session tokens.
type AuthService interface {
	// Authenticate compares an already salted and hashed password.
	Authenticate(ctx context.Context, email, presentedHash string) (*AuthResult, error)
	// Login hashes a plaintext password with the merchant's salt and authenticates.
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

// RegisterRequest holds input for merchant registration.
type RegisterRequest struct {
	EmailAddress string
	Username     string
}

// AccountService covers activation, password reset and password change.
type AccountService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.PublicMerchant, error)
	Activate(ctx context.Context, merchantID uuid.UUID, token, newPassword string) error
	// RequestReset never reveals whether the e-mail address is registered.
	RequestReset(ctx context.Context, email, requesterIP string) error
	InspectResetLink(ctx context.Context, linkID uuid.UUID, key string) (*domain.PasswordResetLink, error)
	RedeemResetLink(ctx context.Context, linkID uuid.UUID, key, newPassword string) error
	ChangePassword(ctx context.Context, merchantID uuid.UUID, currentPassword, newPassword string) error
}

// MerchantService exposes the signed-in merchant's own data.
type MerchantService interface {
	GetProfile(ctx context.Context, merchantID uuid.UUID) (*domain.PublicMerchant, error)
}

// AuditService records audited actions without blocking the request.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// ResetThrottle limits how often reset links are issued per e-mail address.
type ResetThrottle interface {
	// Acquire returns false while a previous request for email is cooling down.
	Acquire(ctx context.Context, email string, cooldown time.Duration) (bool, error)
}

// MailMessage is a rendered outbound e-mail.
type MailMessage struct {
	To       string
	Subject  string
	HTMLBody string
}

// Mailer delivers rendered e-mail.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// AccountNotifier sends the account lifecycle e-mails.
type AccountNotifier interface {
	SendActivation(ctx context.Context, to domain.PublicMerchant, link string) error
	SendPasswordReset(ctx context.Context, to domain.PublicMerchant, link string) error
}
