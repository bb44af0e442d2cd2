package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"dgbcommerce-api/internal/core/domain"
	"dgbcommerce-api/internal/core/ports"
	"dgbcommerce-api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that records successful account writes.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		action, resourceType := mapRouteToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}

		var merchantID *uuid.UUID
		if id, ok := MerchantID(c); ok {
			merchantID = &id
		}

		details, _ := json.Marshal(map[string]any{
			"method":     c.Request.Method,
			"route":      c.FullPath(),
			"status":     status,
			"request_id": response.RequestID(c),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			MerchantID:   merchantID,
			Action:       action,
			ResourceType: resourceType,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

func mapRouteToAction(route, method string) (domain.AuditAction, string) {
	switch {
	case route == "/api/v1/merchants" && method == http.MethodPost:
		return domain.AuditActionRegister, "merchant"
	case route == "/api/v1/merchants/authenticate" && method == http.MethodPost:
		return domain.AuditActionAuthenticate, "session"
	case route == "/api/v1/merchants/activate-account" && method == http.MethodPut:
		return domain.AuditActionActivate, "merchant"
	case route == "/api/v1/merchants/forgot-password" && method == http.MethodPost:
		return domain.AuditActionRequestPasswordReset, "password_reset_link"
	case route == "/api/v1/password-reset-links/public/reset-password" && method == http.MethodPut:
		return domain.AuditActionResetPassword, "password_reset_link"
	case route == "/api/v1/merchants/change-password" && method == http.MethodPut:
		return domain.AuditActionChangePassword, "merchant"
	}
	return "", ""
}
