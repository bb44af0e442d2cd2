package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"dgbcommerce-api/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrDuplicateEmail is returned by MerchantRepository.Create when the e-mail
// address is already registered.
var ErrDuplicateEmail = errors.New("email address already registered")

// MerchantRepository defines persistence operations for merchants.
// Lookups return (nil, nil) when no row matches.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	GetByEmail(ctx context.Context, email string) (*domain.Merchant, error)
	// Activate sets the first password and clears the pending activation hash.
	// It only touches rows with activated_at IS NULL and reports whether one did.
	Activate(ctx context.Context, id uuid.UUID, passwordHash string, activatedAt time.Time) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, salt string) error
	UpdatePasswordTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, passwordHash, salt string) error
}

// PasswordResetLinkRepository defines persistence operations for reset links.
type PasswordResetLinkRepository interface {
	Create(ctx context.Context, link *domain.PasswordResetLink) error
	// GetUnused returns the link only if it matches both id and key hash and
	// has not been redeemed.
	GetUnused(ctx context.Context, id uuid.UUID, keyHash string) (*domain.PasswordResetLink, error)
	// MarkUsedTx consumes the link if it is still unused and reports whether it did.
	MarkUsedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, usedAt time.Time) (bool, error)
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
