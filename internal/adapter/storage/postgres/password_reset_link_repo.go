package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dgbcommerce-api/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PasswordResetLinkRepo implements ports.PasswordResetLinkRepository.
type PasswordResetLinkRepo struct {
	pool Pool
}

// NewPasswordResetLinkRepo creates a new PasswordResetLinkRepo.
func NewPasswordResetLinkRepo(pool Pool) *PasswordResetLinkRepo {
	return &PasswordResetLinkRepo{pool: pool}
}

// Create inserts a new reset link.
func (r *PasswordResetLinkRepo) Create(ctx context.Context, l *domain.PasswordResetLink) error {
	query := `INSERT INTO merchant_password_reset_links (id, merchant_id, key_hash, requester_ip_enc, issued_at, used_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query, l.ID, l.MerchantID, l.KeyHash, l.RequesterIPEnc, l.IssuedAt, l.UsedAt)
	if err != nil {
		return fmt.Errorf("insert reset link: %w", err)
	}
	return nil
}

// GetUnused fetches an unredeemed link by id and key hash.
func (r *PasswordResetLinkRepo) GetUnused(ctx context.Context, id uuid.UUID, keyHash string) (*domain.PasswordResetLink, error) {
	query := `SELECT id, merchant_id, key_hash, requester_ip_enc, issued_at, used_at
		FROM merchant_password_reset_links
		WHERE id = $1 AND key_hash = $2 AND used_at IS NULL`

	l := &domain.PasswordResetLink{}
	err := r.pool.QueryRow(ctx, query, id, keyHash).Scan(
		&l.ID, &l.MerchantID, &l.KeyHash, &l.RequesterIPEnc, &l.IssuedAt, &l.UsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get unused reset link: %w", err)
	}
	return l, nil
}

// MarkUsedTx consumes the link inside tx. It reports false when the link was
// already used.
func (r *PasswordResetLinkRepo) MarkUsedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, usedAt time.Time) (bool, error) {
	query := `UPDATE merchant_password_reset_links SET used_at = $1 WHERE id = $2 AND used_at IS NULL`

	tag, err := tx.Exec(ctx, query, usedAt, id)
	if err != nil {
		return false, fmt.Errorf("mark reset link used: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
