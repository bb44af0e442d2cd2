package handler

import (
	"dgbcommerce-api/internal/adapter/http/dto"
	"dgbcommerce-api/internal/core/ports"
	"dgbcommerce-api/pkg/metrics"
	"dgbcommerce-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles sign-in.
type AuthHandler struct {
	authSvc ports.AuthService
	metrics *metrics.Metrics
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc ports.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, metrics: m}
}

// Authenticate handles POST /api/v1/merchants/authenticate.
func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req dto.AuthenticateRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.EmailAddress, req.Password)
	h.metrics.AuthAttempt(outcome(err))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.AuthenticateResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Merchant:  dto.NewMerchantResponse(result.Merchant),
	})
}
