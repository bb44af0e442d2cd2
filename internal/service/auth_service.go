package service

import (
	"context"
	"fmt"

	"dgbcommerce-api/internal/core/domain"
	"dgbcommerce-api/internal/core/ports"
	"dgbcommerce-api/pkg/apperror"

	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	merchantRepo ports.MerchantRepository
	secrets      ports.SecretService
	tokenSvc     ports.TokenService
	log          zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	merchantRepo ports.MerchantRepository,
	secrets ports.SecretService,
	tokenSvc ports.TokenService,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		merchantRepo: merchantRepo,
		secrets:      secrets,
		tokenSvc:     tokenSvc,
		log:          log,
	}
}

// Authenticate checks a presented password digest against the stored one and
// issues a session token. Unknown e-mail, unactivated account and wrong
// password all yield the same InvalidCredentials error.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, email, presentedHash string) (*ports.AuthResult, error) {
	merchant, err := s.merchantRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find merchant: %w", err))
	}
	return s.authenticate(merchant, presentedHash)
}

// Login hashes a plaintext password with the merchant's salt, then authenticates.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	merchant, err := s.merchantRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find merchant: %w", err))
	}

	if merchant == nil {
		// Burn one hash so unknown addresses take as long as wrong passwords.
		salt, err := s.secrets.GenerateSalt()
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("generate salt: %w", err))
		}
		_ = s.secrets.HashPassword(salt, password)
		return nil, apperror.ErrInvalidCredentials()
	}

	return s.authenticate(merchant, s.secrets.HashPassword(merchant.PasswordSalt, password))
}

func (s *AuthServiceImpl) authenticate(merchant *domain.Merchant, presentedHash string) (*ports.AuthResult, error) {
	// A password set through a reset link does not activate the account.
	if merchant == nil || !merchant.IsActivated() || !merchant.HasPassword() {
		return nil, apperror.ErrInvalidCredentials()
	}
	if !s.secrets.Equal(*merchant.PasswordHash, presentedHash) {
		return nil, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokenSvc.Issue(merchant.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("issue token: %w", err))
	}

	s.log.Debug().Str("merchant_id", merchant.ID.String()).Msg("merchant authenticated")

	return &ports.AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Merchant:  merchant.Public(),
	}, nil
}
