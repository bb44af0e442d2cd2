package response

import (
	"errors"
	"net/http"
	"time"

	"dgbcommerce-api/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Data      any    `json:"data"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// MessageBody is the payload for endpoints that only acknowledge a request.
type MessageBody struct {
	Message string `json:"message"`
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data any) {
	success(c, http.StatusOK, data)
}

// Created sends a 201 response with data.
func Created(c *gin.Context, data any) {
	success(c, http.StatusCreated, data)
}

// Message sends a 200 response whose data is a single message string.
func Message(c *gin.Context, msg string) {
	success(c, http.StatusOK, MessageBody{Message: msg})
}

// Error sends an error response. An *apperror.AppError anywhere in the chain
// decides the status and code, anything else is a 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		failure(c, appErr.HTTPStatus, appErr.Code, appErr.Message)
		return
	}
	failure(c, http.StatusInternalServerError, "SYS_000", "Internal server error")
}

// Abort writes an error response and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

func success(c *gin.Context, status int, data any) {
	c.JSON(status, SuccessResponse{
		Data:      data,
		RequestID: RequestID(c),
		Timestamp: now(),
	})
}

func failure(c *gin.Context, status int, code, msg string) {
	c.JSON(status, ErrorResponse{
		ErrorCode: code,
		Message:   msg,
		RequestID: RequestID(c),
		Timestamp: now(),
	})
}

// RequestID returns the request id stored on the context, creating one when absent.
func RequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		if s, ok := id.(string); ok && s != "" {
			return s
		}
	}
	id := uuid.New().String()
	c.Set(RequestIDKey, id)
	return id
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
