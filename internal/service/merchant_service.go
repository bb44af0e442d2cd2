package service

import (
	"context"
	"fmt"

	"dgbcommerce-api/internal/core/domain"
	"dgbcommerce-api/internal/core/ports"
	"dgbcommerce-api/pkg/apperror"

	"github.com/google/uuid"
)

// MerchantServiceImpl implements ports.MerchantService.
type MerchantServiceImpl struct {
	merchantRepo ports.MerchantRepository
}

// NewMerchantService creates a new merchant profile service.
func NewMerchantService(merchantRepo ports.MerchantRepository) *MerchantServiceImpl {
	return &MerchantServiceImpl{merchantRepo: merchantRepo}
}

// GetProfile returns the public view of the signed-in merchant. A session
// whose merchant no longer exists is treated as unauthorized.
func (s *MerchantServiceImpl) GetProfile(ctx context.Context, merchantID uuid.UUID) (*domain.PublicMerchant, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrUnauthorized()
	}

	pub := merchant.Public()
	return &pub, nil
}
