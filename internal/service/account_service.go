package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"dgbcommerce-api/internal/core/domain"
	"dgbcommerce-api/internal/core/ports"
	"dgbcommerce-api/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	activationTokenLength = 24
	resetKeyLength        = 32
	mailTimeout           = 30 * time.Second
)

// AccountConfig carries the settings the account workflows need from config.
type AccountConfig struct {
	BaseURL       string        // public front-end origin used in e-mailed links
	ResetCooldown time.Duration // minimum gap between reset links for one address, 0 = off
}

// AccountServiceImpl implements ports.AccountService.
type AccountServiceImpl struct {
	merchantRepo ports.MerchantRepository
	linkRepo     ports.PasswordResetLinkRepository
	transactor   ports.DBTransactor
	secrets      ports.SecretService
	encSvc       ports.EncryptionService
	throttle     ports.ResetThrottle
	notifier     ports.AccountNotifier
	cfg          AccountConfig
	log          zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl. throttle may be nil.
func NewAccountService(
	merchantRepo ports.MerchantRepository,
	linkRepo ports.PasswordResetLinkRepository,
	transactor ports.DBTransactor,
	secrets ports.SecretService,
	encSvc ports.EncryptionService,
	throttle ports.ResetThrottle,
	notifier ports.AccountNotifier,
	cfg AccountConfig,
	log zerolog.Logger,
) *AccountServiceImpl {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &AccountServiceImpl{
		merchantRepo: merchantRepo,
		linkRepo:     linkRepo,
		transactor:   transactor,
		secrets:      secrets,
		encSvc:       encSvc,
		throttle:     throttle,
		notifier:     notifier,
		cfg:          cfg,
		log:          log,
	}
}

// Register creates a merchant awaiting activation and e-mails the one-time
// activation token. Only the token's hash is stored.
func (s *AccountServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*domain.PublicMerchant, error) {
	existing, err := s.merchantRepo.GetByEmail(ctx, req.EmailAddress)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	salt, err := s.secrets.GenerateSalt()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate salt: %w", err))
	}
	token, err := s.secrets.GenerateRandomToken(activationTokenLength)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate activation token: %w", err))
	}
	pending := s.secrets.HashPassword(salt, token)

	now := time.Now().UTC()
	merchant := &domain.Merchant{
		ID:                    uuid.New(),
		EmailAddress:          req.EmailAddress,
		Username:              req.Username,
		PasswordSalt:          salt,
		PendingActivationHash: &pending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		if errors.Is(err, ports.ErrDuplicateEmail) {
			return nil, apperror.ErrEmailExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("create merchant: %w", err))
	}

	pub := merchant.Public()
	link := s.link("activate-account", url.Values{"id": {merchant.ID.String()}, "token": {token}})
	s.dispatch("activation", merchant.ID, func(ctx context.Context) error {
		return s.notifier.SendActivation(ctx, pub, link)
	})

	return &pub, nil
}

// Activate sets the first password of a pending merchant.
func (s *AccountServiceImpl) Activate(ctx context.Context, merchantID uuid.UUID, token, newPassword string) error {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find merchant: %w", err))
	}
	// The token is checked before the state so an id alone reveals nothing.
	if merchant == nil || merchant.PendingActivationHash == nil ||
		!s.secrets.Equal(*merchant.PendingActivationHash, s.secrets.HashPassword(merchant.PasswordSalt, token)) {
		return apperror.ErrActivationNotFound()
	}
	if merchant.IsActivated() {
		return apperror.ErrAlreadyActivated()
	}

	activated, err := s.merchantRepo.Activate(ctx, merchant.ID,
		s.secrets.HashPassword(merchant.PasswordSalt, newPassword), time.Now().UTC())
	if err != nil {
		return apperror.InternalError(fmt.Errorf("activate merchant: %w", err))
	}
	if !activated {
		// Lost the race against a concurrent activation.
		return apperror.ErrAlreadyActivated()
	}
	return nil
}

// RequestReset issues a reset link when email belongs to a merchant. The
// outcome is the same whether or not it does.
func (s *AccountServiceImpl) RequestReset(ctx context.Context, email, requesterIP string) error {
	if s.throttle != nil && s.cfg.ResetCooldown > 0 {
		allowed, err := s.throttle.Acquire(ctx, email, s.cfg.ResetCooldown)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("reset throttle unavailable, continuing")
		case !allowed:
			s.log.Debug().Msg("reset request throttled")
			return nil
		}
	}

	merchant, err := s.merchantRepo.GetByEmail(ctx, email)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find merchant: %w", err))
	}
	if merchant == nil {
		return nil
	}

	key, err := s.secrets.GenerateRandomToken(resetKeyLength)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("generate reset key: %w", err))
	}

	var ipEnc *string
	if requesterIP != "" {
		enc, err := s.encSvc.Encrypt(requesterIP)
		if err != nil {
			return apperror.ErrEncryptionFailure(fmt.Errorf("encrypt requester ip: %w", err))
		}
		ipEnc = &enc
	}

	resetLink := &domain.PasswordResetLink{
		ID:             uuid.New(),
		MerchantID:     merchant.ID,
		KeyHash:        s.secrets.HashToken(key),
		RequesterIPEnc: ipEnc,
		IssuedAt:       time.Now().UTC(),
	}
	if err := s.linkRepo.Create(ctx, resetLink); err != nil {
		return apperror.InternalError(fmt.Errorf("create reset link: %w", err))
	}

	pub := merchant.Public()
	link := s.link("reset-password", url.Values{"id": {resetLink.ID.String()}, "key": {key}})
	s.dispatch("password_reset", merchant.ID, func(ctx context.Context) error {
		return s.notifier.SendPasswordReset(ctx, pub, link)
	})

	return nil
}

// InspectResetLink reports whether a link can still be redeemed.
func (s *AccountServiceImpl) InspectResetLink(ctx context.Context, linkID uuid.UUID, key string) (*domain.PasswordResetLink, error) {
	link, err := s.linkRepo.GetUnused(ctx, linkID, s.secrets.HashToken(key))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find reset link: %w", err))
	}
	if link == nil {
		return nil, apperror.ErrInvalidOrExpiredLink()
	}
	return link, nil
}

// RedeemResetLink sets a new password under a fresh salt and consumes the
// link. Both writes commit together or not at all.
func (s *AccountServiceImpl) RedeemResetLink(ctx context.Context, linkID uuid.UUID, key, newPassword string) error {
	link, err := s.InspectResetLink(ctx, linkID, key)
	if err != nil {
		return err
	}

	salt, err := s.secrets.GenerateSalt()
	if err != nil {
		return apperror.InternalError(fmt.Errorf("generate salt: %w", err))
	}
	hash := s.secrets.HashPassword(salt, newPassword)

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.merchantRepo.UpdatePasswordTx(ctx, dbTx, link.MerchantID, hash, salt); err != nil {
		return apperror.InternalError(fmt.Errorf("update password: %w", err))
	}

	// The password row is locked now, a concurrent redeem of the same link
	// waits here and then finds used_at set.
	consumed, err := s.linkRepo.MarkUsedTx(ctx, dbTx, link.ID, time.Now().UTC())
	if err != nil {
		return apperror.InternalError(fmt.Errorf("mark link used: %w", err))
	}
	if !consumed {
		return apperror.ErrInvalidOrExpiredLink()
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// ChangePassword replaces the password of a signed-in merchant. The salt is
// kept.
func (s *AccountServiceImpl) ChangePassword(ctx context.Context, merchantID uuid.UUID, currentPassword, newPassword string) error {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find merchant: %w", err))
	}
	if merchant == nil {
		return apperror.ErrUnauthorized()
	}

	if !merchant.HasPassword() ||
		!s.secrets.Equal(*merchant.PasswordHash, s.secrets.HashPassword(merchant.PasswordSalt, currentPassword)) {
		return apperror.ErrIncorrectCurrentPassword()
	}

	hash := s.secrets.HashPassword(merchant.PasswordSalt, newPassword)
	if err := s.merchantRepo.UpdatePassword(ctx, merchant.ID, hash, merchant.PasswordSalt); err != nil {
		return apperror.InternalError(fmt.Errorf("update password: %w", err))
	}
	return nil
}

func (s *AccountServiceImpl) link(path string, q url.Values) string {
	return s.cfg.BaseURL + "/" + path + "?" + q.Encode()
}

// dispatch sends an e-mail in the background. Delivery failures are logged
// and never reach the caller.
func (s *AccountServiceImpl) dispatch(kind string, merchantID uuid.UUID, send func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			s.log.Warn().Err(err).
				Str("mail", kind).
				Str("merchant_id", merchantID.String()).
				Msg("failed to send account e-mail")
		}
	}()
}
