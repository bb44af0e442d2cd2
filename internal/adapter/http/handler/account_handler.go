package handler

import (
	"dgbcommerce-api/internal/adapter/http/dto"
	"dgbcommerce-api/internal/adapter/http/middleware"
	"dgbcommerce-api/internal/core/ports"
	"dgbcommerce-api/pkg/apperror"
	"dgbcommerce-api/pkg/metrics"
	"dgbcommerce-api/pkg/response"

	"github.com/gin-gonic/gin"
)

// ForgotPasswordMessage is returned for every well-formed forgot-password request.
const ForgotPasswordMessage = "If the address belongs to a merchant, a password reset link has been sent"

// AccountHandler handles registration, activation and password lifecycle endpoints.
type AccountHandler struct {
	accountSvc ports.AccountService
	metrics    *metrics.Metrics
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService, m *metrics.Metrics) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc, metrics: m}
}

// Register handles POST /api/v1/merchants.
func (h *AccountHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	merchant, err := h.accountSvc.Register(c.Request.Context(), ports.RegisterRequest{
		EmailAddress: req.EmailAddress,
		Username:     req.Username,
	})
	h.metrics.AccountEvent(metrics.EventRegister, outcome(err))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewMerchantResponse(*merchant))
}

// ActivateAccount handles PUT /api/v1/merchants/activate-account.
func (h *AccountHandler) ActivateAccount(c *gin.Context) {
	var req dto.ActivateAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	id, ok := parseID(c, req.ID)
	if !ok {
		return
	}

	err := h.accountSvc.Activate(c.Request.Context(), id, req.Token, req.NewPassword)
	h.metrics.AccountEvent(metrics.EventActivate, outcome(err))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "Account activated")
}

// ForgotPassword handles POST /api/v1/merchants/forgot-password. The response
// is the same whether or not the address is registered.
func (h *AccountHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.accountSvc.RequestReset(c.Request.Context(), req.EmailAddress, c.ClientIP())
	h.metrics.AccountEvent(metrics.EventForgotPassword, outcome(err))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, ForgotPasswordMessage)
}

// ChangePassword handles PUT /api/v1/merchants/change-password.
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	merchantID, ok := middleware.MerchantID(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized())
		return
	}

	var req dto.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.accountSvc.ChangePassword(c.Request.Context(), merchantID, req.CurrentPassword, req.NewPassword)
	h.metrics.AccountEvent(metrics.EventChangePassword, outcome(err))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "Password changed")
}

// InspectResetLink handles GET /api/v1/password-reset-links/public.
func (h *AccountHandler) InspectResetLink(c *gin.Context) {
	var q dto.ResetLinkQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.ErrInvalidOrExpiredLink())
		return
	}
	id, ok := parseID(c, q.ID)
	if !ok {
		return
	}

	link, err := h.accountSvc.InspectResetLink(c.Request.Context(), id, q.Key)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ResetLinkResponse{
		ID:       link.ID.String(),
		IssuedAt: link.IssuedAt,
	})
}

// ResetPassword handles PUT /api/v1/password-reset-links/public/reset-password.
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	id, ok := parseID(c, req.ID)
	if !ok {
		return
	}

	err := h.accountSvc.RedeemResetLink(c.Request.Context(), id, req.Key, req.NewPassword)
	h.metrics.AccountEvent(metrics.EventResetPassword, outcome(err))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "Password reset")
}
