package dto

import (
	"time"

	"dgbcommerce-api/internal/core/domain"
)

// AuthenticateRequest is the request body for merchant sign-in.
type AuthenticateRequest struct {
	EmailAddress string `json:"email_address" binding:"required,email,max=254"`
	Password     string `json:"password" binding:"required,max=128" sanitize:"-"`
}

// RegisterRequest is the request body for merchant registration.
type RegisterRequest struct {
	EmailAddress string `json:"email_address" binding:"required,email,max=254"`
	Username     string `json:"username" binding:"required,min=3,max=50,safe_id"`
}

// ActivateAccountRequest completes registration with the e-mailed token.
type ActivateAccountRequest struct {
	ID          string `json:"id" binding:"required,uuid"`
	Token       string `json:"token" binding:"required,alphanum,max=64" sanitize:"-"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128" sanitize:"-"`
}

// ForgotPasswordRequest asks for a reset link.
type ForgotPasswordRequest struct {
	EmailAddress string `json:"email_address" binding:"required,email,max=254"`
}

// ResetLinkQuery identifies a reset link from the e-mailed URL.
type ResetLinkQuery struct {
	ID  string `form:"id" binding:"required,uuid"`
	Key string `form:"key" binding:"required,alphanum,max=64" sanitize:"-"`
}

// ResetPasswordRequest redeems a reset link.
type ResetPasswordRequest struct {
	ID          string `json:"id" binding:"required,uuid"`
	Key         string `json:"key" binding:"required,alphanum,max=64" sanitize:"-"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128" sanitize:"-"`
}

// ChangePasswordRequest replaces the signed-in merchant's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required,max=128" sanitize:"-"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128" sanitize:"-"`
}

// MerchantResponse is the public view of a merchant.
type MerchantResponse struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	EmailAddress string `json:"email_address"`
}

// NewMerchantResponse converts the domain projection.
func NewMerchantResponse(m domain.PublicMerchant) MerchantResponse {
	return MerchantResponse{
		ID:           m.ID.String(),
		Username:     m.Username,
		EmailAddress: m.EmailAddress,
	}
}

// AuthenticateResponse is the response body for successful sign-in.
type AuthenticateResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Merchant  MerchantResponse `json:"merchant"`
}

// ResetLinkResponse describes a redeemable reset link.
type ResetLinkResponse struct {
	ID       string    `json:"id"`
	IssuedAt time.Time `json:"issued_at"`
}
