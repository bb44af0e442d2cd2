package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dgbcommerce-api/internal/core/domain"
	"dgbcommerce-api/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const merchantColumns = `id, email_address, username, password_hash, password_salt,
	pending_activation_hash, activated_at, created_at, updated_at`

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

// Create inserts a new merchant. A clash on e-mail address wraps ports.ErrDuplicateEmail.
func (r *MerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	query := `INSERT INTO merchants (` + merchantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.EmailAddress, m.Username, m.PasswordHash, m.PasswordSalt,
		m.PendingActivationHash, m.ActivatedAt, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert merchant: %w", ports.ErrDuplicateEmail)
		}
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByID fetches a merchant by its UUID.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1`

	m, err := scanMerchant(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get merchant by id: %w", err)
	}
	return m, nil
}

// GetByEmail fetches a merchant by e-mail address, ignoring case.
func (r *MerchantRepo) GetByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE lower(email_address) = lower($1)`

	m, err := scanMerchant(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("get merchant by email: %w", err)
	}
	return m, nil
}

// Activate stores the first password of a pending merchant. The activation
// hash is kept so a repeated activation is recognised as such.
func (r *MerchantRepo) Activate(ctx context.Context, id uuid.UUID, passwordHash string, activatedAt time.Time) (bool, error) {
	query := `UPDATE merchants
		SET password_hash = $1, activated_at = $2, updated_at = NOW()
		WHERE id = $3 AND activated_at IS NULL`

	tag, err := r.pool.Exec(ctx, query, passwordHash, activatedAt, id)
	if err != nil {
		return false, fmt.Errorf("activate merchant: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdatePassword replaces password hash and salt.
func (r *MerchantRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, salt string) error {
	return updatePassword(ctx, r.pool, id, passwordHash, salt)
}

// UpdatePasswordTx replaces password hash and salt inside tx.
func (r *MerchantRepo) UpdatePasswordTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, passwordHash, salt string) error {
	return updatePassword(ctx, tx, id, passwordHash, salt)
}

func updatePassword(ctx context.Context, q execer, id uuid.UUID, passwordHash, salt string) error {
	query := `UPDATE merchants SET password_hash = $1, password_salt = $2, updated_at = NOW() WHERE id = $3`

	tag, err := q.Exec(ctx, query, passwordHash, salt, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update password: merchant %s not found", id)
	}
	return nil
}

// scanMerchant returns (nil, nil) when the row does not exist.
func scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	err := row.Scan(
		&m.ID, &m.EmailAddress, &m.Username, &m.PasswordHash, &m.PasswordSalt,
		&m.PendingActivationHash, &m.ActivatedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}
