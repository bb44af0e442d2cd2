package handler

import (
	"fmt"
	"net/http"

	"dgbcommerce-api/internal/adapter/http/middleware"
	"dgbcommerce-api/internal/core/ports"
	"dgbcommerce-api/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	AccountSvc     ports.AccountService
	MerchantSvc    ports.MerchantService
	TokenSvc       ports.TokenService
	RateLimitStore middleware.RateLimitStore // nil = rate limiting disabled
	AuditSvc       ports.AuditService        // nil = audit logging disabled
	HealthCheckers []ports.HealthChecker
	Metrics        *metrics.Metrics // nil = a fresh registry
	OpenAPISpec    []byte
	Logger         zerolog.Logger
}

// RouteTable declares the access posture of every route SetupRouter registers.
func RouteTable() middleware.RouteTable {
	return middleware.NewRouteTable().
		Public(http.MethodGet, "/health").
		Public(http.MethodGet, "/metrics").
		Public(http.MethodGet, "/swagger").
		Public(http.MethodGet, "/swagger/spec").
		Public(http.MethodPost, "/api/v1/merchants").
		Public(http.MethodPost, "/api/v1/merchants/authenticate").
		Public(http.MethodPut, "/api/v1/merchants/activate-account").
		Public(http.MethodPost, "/api/v1/merchants/forgot-password").
		Public(http.MethodGet, "/api/v1/password-reset-links/public").
		Public(http.MethodPut, "/api/v1/password-reset-links/public/reset-password").
		Protect(http.MethodGet, "/api/v1/merchants/me").
		Protect(http.MethodPut, "/api/v1/merchants/change-password")
}

// SetupRouter initialises the Gin engine with all routes and middleware. It
// fails when a registered route is missing from the route table.
func SetupRouter(deps RouterDeps) (*gin.Engine, error) {
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	table := RouteTable()

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBodyBytes))
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}
	r.Use(middleware.SessionGate(table, deps.TokenSvc, deps.Logger))

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	r.GET("/metrics", gin.WrapH(m.Handler()))

	swagger := NewSwaggerHandler(deps.OpenAPISpec)
	r.GET("/swagger", swagger.UI)
	r.GET("/swagger/spec", swagger.Spec)

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		rule, ok := rules[group]
		if deps.RateLimitStore == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	authHandler := NewAuthHandler(deps.AuthSvc, m)
	accountHandler := NewAccountHandler(deps.AccountSvc, m)
	merchantHandler := NewMerchantHandler(deps.MerchantSvc)

	v1 := r.Group("/api/v1")

	merchants := v1.Group("/merchants")
	{
		merchants.POST("", rl(middleware.GroupRegister), accountHandler.Register)
		merchants.POST("/authenticate", rl(middleware.GroupAuthenticate), authHandler.Authenticate)
		merchants.PUT("/activate-account", rl(middleware.GroupActivate), accountHandler.ActivateAccount)
		merchants.POST("/forgot-password", rl(middleware.GroupForgotPassword), accountHandler.ForgotPassword)
		merchants.GET("/me", rl(middleware.GroupAccount), merchantHandler.GetProfile)
		merchants.PUT("/change-password", rl(middleware.GroupAccount), accountHandler.ChangePassword)
	}

	resetLinks := v1.Group("/password-reset-links/public")
	{
		resetLinks.GET("", rl(middleware.GroupReset), accountHandler.InspectResetLink)
		resetLinks.PUT("/reset-password", rl(middleware.GroupReset), accountHandler.ResetPassword)
	}

	if err := table.Verify(r.Routes()); err != nil {
		return nil, fmt.Errorf("route table: %w", err)
	}
	return r, nil
}
