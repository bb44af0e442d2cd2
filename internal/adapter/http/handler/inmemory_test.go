package handler_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"dgbcommerce-api/internal/core/domain"
	"dgbcommerce-api/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[uuid.UUID]domain.Merchant
}

func newInMemoryMerchantRepo() *inMemoryMerchantRepo {
	return &inMemoryMerchantRepo{merchants: make(map[uuid.UUID]domain.Merchant)}
}

func (r *inMemoryMerchantRepo) Create(_ context.Context, m *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.merchants {
		if strings.EqualFold(existing.EmailAddress, m.EmailAddress) {
			return ports.ErrDuplicateEmail
		}
	}
	r.merchants[m.ID] = *m
	return nil
}

func (r *inMemoryMerchantRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.merchants[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *inMemoryMerchantRepo) GetByEmail(_ context.Context, email string) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.merchants {
		if strings.EqualFold(m.EmailAddress, email) {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *inMemoryMerchantRepo) Activate(_ context.Context, id uuid.UUID, passwordHash string, activatedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok || m.ActivatedAt != nil {
		return false, nil
	}
	m.PasswordHash = &passwordHash
	m.ActivatedAt = &activatedAt
	r.merchants[id] = m
	return true, nil
}

func (r *inMemoryMerchantRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash, salt string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.merchants[id]
	if !ok {
		return pgx.ErrNoRows
	}
	m.PasswordHash = &passwordHash
	m.PasswordSalt = salt
	r.merchants[id] = m
	return nil
}

func (r *inMemoryMerchantRepo) UpdatePasswordTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, passwordHash, salt string) error {
	tx.(*memTx).onCommit(func() { _ = r.UpdatePassword(ctx, id, passwordHash, salt) })
	return nil
}

// --- In-Memory Reset Link Repo ---

type inMemoryResetLinkRepo struct {
	mu    sync.Mutex
	links map[uuid.UUID]domain.PasswordResetLink
}

func newInMemoryResetLinkRepo() *inMemoryResetLinkRepo {
	return &inMemoryResetLinkRepo{links: make(map[uuid.UUID]domain.PasswordResetLink)}
}

func (r *inMemoryResetLinkRepo) Create(_ context.Context, l *domain.PasswordResetLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[l.ID] = *l
	return nil
}

func (r *inMemoryResetLinkRepo) GetUnused(_ context.Context, id uuid.UUID, keyHash string) (*domain.PasswordResetLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[id]
	if !ok || l.KeyHash != keyHash || l.UsedAt != nil {
		return nil, nil
	}
	return &l, nil
}

// MarkUsedTx claims the link immediately, like a row lock, and releases it on rollback.
func (r *inMemoryResetLinkRepo) MarkUsedTx(_ context.Context, tx pgx.Tx, id uuid.UUID, usedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[id]
	if !ok || l.UsedAt != nil {
		return false, nil
	}
	l.UsedAt = &usedAt
	r.links[id] = l
	tx.(*memTx).onRollback(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		l.UsedAt = nil
		r.links[id] = l
	})
	return true, nil
}

func (r *inMemoryResetLinkRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.links)
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func (inMemoryTransactor) Begin(context.Context) (pgx.Tx, error) {
	return &memTx{}, nil
}

// memTx applies deferred writes on Commit and undoes claims on Rollback.
// Methods it does not override panic through the nil embedded interface.
type memTx struct {
	pgx.Tx
	mu       sync.Mutex
	commits  []func()
	undos    []func()
	finished bool
}

func (t *memTx) onCommit(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commits = append(t.commits, f)
}

func (t *memTx) onRollback(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.undos = append(t.undos, f)
}

func (t *memTx) Commit(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return pgx.ErrTxClosed
	}
	t.finished = true
	for _, f := range t.commits {
		f()
	}
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return pgx.ErrTxClosed
	}
	t.finished = true
	for _, f := range t.undos {
		f()
	}
	return nil
}

// --- Recording Mailer ---

type recordingMailer struct {
	sent chan ports.MailMessage
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{sent: make(chan ports.MailMessage, 16)}
}

func (m *recordingMailer) Send(_ context.Context, msg ports.MailMessage) error {
	m.sent <- msg
	return nil
}
