package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// ---- Authentication & account lifecycle (AUTH) ----

const (
	CodeInvalidCredentials       = "AUTH_001"
	CodeEmailExists              = "AUTH_002"
	CodeUnauthorized             = "AUTH_003"
	CodeAlreadyActivated         = "AUTH_004"
	CodeActivationNotFound       = "AUTH_005"
	CodeInvalidOrExpiredLink     = "AUTH_006"
	CodeIncorrectCurrentPassword = "AUTH_007"
	CodeValidation               = "VAL_001"
	CodeRateLimitExceeded        = "RATE_001"
	CodeInternal                 = "SYS_001"
	CodeEncryptionFailure        = "SYS_002"
)

// ErrInvalidCredentials covers unknown email, unactivated account and wrong
// password alike.
func ErrInvalidCredentials() *AppError {
	return New(CodeInvalidCredentials, "Username or password is incorrect", http.StatusBadRequest)
}

func ErrEmailExists() *AppError {
	return New(CodeEmailExists, "Email address is already registered", http.StatusConflict)
}

func ErrUnauthorized() *AppError {
	return New(CodeUnauthorized, "You are not authorized to use this endpoint", http.StatusUnauthorized)
}

func ErrAlreadyActivated() *AppError {
	return New(CodeAlreadyActivated, "Merchant account is already activated", http.StatusBadRequest)
}

func ErrActivationNotFound() *AppError {
	return New(CodeActivationNotFound, "Merchant not found or activation token invalid", http.StatusNotFound)
}

func ErrInvalidOrExpiredLink() *AppError {
	return New(CodeInvalidOrExpiredLink, "Password reset link already used or expired", http.StatusBadRequest)
}

func ErrIncorrectCurrentPassword() *AppError {
	return New(CodeIncorrectCurrentPassword, "Current password is incorrect", http.StatusBadRequest)
}

// ---- Validation (VAL) ----

// Validation returns a VAL_001 error carrying a client-facing message.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New(CodeRateLimitExceeded, "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap(CodeEncryptionFailure, "Encryption service failure", http.StatusInternalServerError, err)
}
