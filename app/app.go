// File: app/app.go
package app

import (
	"context"
	"go-contacts-api/config"
	"go-contacts-api/db"
	"go-contacts-api/handler"
	"go-contacts-api/logger"
	"go-contacts-api/repository"
	"go-contacts-api/router"
	"go-contacts-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")
	cfg := &config.AppConfig

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	// The revocation ledger prefers the shared cache so revocations
	// survive restarts and cover future replicas; without redis it
	// degrades to the process-local ledger.
	var ledger service.IRevocationLedger
	if redisClient, err := db.ConnectRedis(); err != nil {
		logger.Log.WithError(err).Warn("Redis unavailable, using in-memory revocation ledger")
		ledger = service.NewMemoryRevocationLedger()
	} else {
		defer redisClient.Close()
		ledger = service.NewRedisRevocationLedger(redisClient)
	}

	// --- Wiring All Layers Together ---
	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	contactRepo := repository.NewContactRepository(database)

	codec := service.NewTokenCodec(cfg.JWT.SecretKey, cfg.ClockLeeway())
	authService := service.NewAuthService(userRepo, tokenRepo, codec, ledger, service.TokenTTLs{
		Access:  cfg.AccessTokenTTL(),
		Refresh: cfg.RefreshTokenTTL(),
		Action:  cfg.ActionTokenTTL(),
	})
	userService := service.NewUserService(userRepo)
	contactService := service.NewContactService(contactRepo)
	emailSender := service.NewSMTPEmailSender(cfg.Mail.Host, cfg.Mail.Port,
		cfg.Mail.From, cfg.Mail.FromName, cfg.Mail.Username, cfg.Mail.Password)

	authMW := handler.NewAuthMiddleware(codec, ledger)
	r := router.NewRouter(router.Deps{
		Auth:      handler.NewAuthHandler(authService, emailSender, cfg.Server.BaseURL),
		Users:     handler.NewUserHandler(authService, userService, emailSender, cfg.Server.BaseURL),
		Contacts:  handler.NewContactHandler(authService, contactService),
		Health:    handler.NewHealthHandler(database),
		AuthMW:    authMW,
		MeLimiter: handler.NewRateLimiter(cfg.RateLimit.MePerMinute),
	})

	// --- Background Sweeper ---
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	sweeper := service.NewSweeper(tokenRepo, cfg.SweeperInterval(), cfg.SweeperRetention(), cfg.Sweeper.BatchSize)
	go sweeper.Run(sweeperCtx)

	// --- Start the Server with Graceful Shutdown ---
	port := cfg.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
