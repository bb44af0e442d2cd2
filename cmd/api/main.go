package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dgbcommerce-api/config"
	httpHandler "dgbcommerce-api/internal/adapter/http/handler"
	"dgbcommerce-api/internal/adapter/mail"
	pgStorage "dgbcommerce-api/internal/adapter/storage/postgres"
	redisStorage "dgbcommerce-api/internal/adapter/storage/redis"
	"dgbcommerce-api/internal/core/ports"
	"dgbcommerce-api/internal/service"
	"dgbcommerce-api/pkg/logger"
	"dgbcommerce-api/pkg/metrics"

	"github.com/gin-gonic/gin"
)

const openAPIPath = "docs/api/openapi.yaml"

func main() {
	cfg, err := config.Load(os.Getenv("DGB_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting DGBCommerce API")

	ctx := context.Background()

	if cfg.Database.Migrate {
		if err := pgStorage.Migrate(ctx, cfg.Database.DSN(), log); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Repositories
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	linkRepo := pgStorage.NewPasswordResetLinkRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	secrets := service.NewSecretService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	mailer, err := mail.New(cfg.Mail, logger.Component(log, "mail"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize mailer")
	}
	notifier := mail.NewNotifier(mailer)

	accountSvc := service.NewAccountService(
		merchantRepo,
		linkRepo,
		transactor,
		secrets,
		encSvc,
		redisStorage.NewResetThrottle(rdb),
		notifier,
		service.AccountConfig{BaseURL: cfg.Links.BaseURL, ResetCooldown: cfg.Reset.Cooldown},
		logger.Component(log, "account"),
	)
	authSvc := service.NewAuthService(merchantRepo, secrets, tokenSvc, logger.Component(log, "auth"))
	merchantSvc := service.NewMerchantService(merchantRepo)
	auditSvc := service.NewAuditService(auditRepo, logger.Component(log, "audit"))

	specBytes, err := os.ReadFile(openAPIPath)
	if err != nil {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	router, err := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		AccountSvc:     accountSvc,
		MerchantSvc:    merchantSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: redisStorage.NewRateLimitStore(rdb),
		AuditSvc:       auditSvc,
		HealthCheckers: []ports.HealthChecker{pgStorage.NewHealthCheck(pool), redisStorage.NewHealthCheck(rdb)},
		Metrics:        metrics.New(),
		OpenAPISpec:    specBytes,
		Logger:         log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build router")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
