package handler

import (
	"dgbcommerce-api/internal/adapter/http/dto"
	"dgbcommerce-api/internal/adapter/http/middleware"
	"dgbcommerce-api/internal/core/ports"
	"dgbcommerce-api/pkg/apperror"
	"dgbcommerce-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// MerchantHandler handles merchant self-service endpoints.
type MerchantHandler struct {
	merchantSvc ports.MerchantService
}

// NewMerchantHandler creates a new merchant handler.
func NewMerchantHandler(merchantSvc ports.MerchantService) *MerchantHandler {
	return &MerchantHandler{merchantSvc: merchantSvc}
}

// GetProfile handles GET /api/v1/merchants/me.
func (h *MerchantHandler) GetProfile(c *gin.Context) {
	merchantID, ok := middleware.MerchantID(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized())
		return
	}

	profile, err := h.merchantSvc.GetProfile(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewMerchantResponse(*profile))
}
