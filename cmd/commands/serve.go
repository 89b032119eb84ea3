package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"loyaltydesk/backoffice/internal/config"
	"loyaltydesk/backoffice/internal/handler"
	"loyaltydesk/backoffice/internal/model"
	"loyaltydesk/backoffice/internal/repository"
	"loyaltydesk/backoffice/internal/service"
	jwtpkg "loyaltydesk/backoffice/pkg/jwt"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	// 1. Load configuration, logger and database
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// 2. Auto-migrate if enabled
	if cfg.Database.Postgres.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
		logger.Info("database migration completed")
	}

	// 3. Initialize session store (Redis or in-memory)
	var sessions repository.SessionStore
	switch cfg.State.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		sessions = repository.NewRedisSessionStore(redisClient)
		logger.Info("using Redis session store")
	default:
		sessions = repository.NewMemorySessionStore()
		logger.Info("using in-memory session store")
	}

	// 4. Initialize repositories
	userRepo := repository.NewPGUserRepository(db)
	customerRepo := repository.NewPGCustomerRepository(db)
	invoiceRepo := repository.NewPGInvoiceRepository(db)
	tx := repository.NewTransactor(db)

	// 5. Initialize JWT manager
	jwtManager := jwtpkg.NewManager(
		cfg.JWT.SigningKey,
		cfg.JWT.Issuer,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
	)

	// 6. Initialize services
	policy, err := cfg.Loyalty.Policy()
	if err != nil {
		return err
	}
	authService := service.NewAuthService(userRepo, sessions, jwtManager, nil, logger)
	customerService := service.NewCustomerService(customerRepo, invoiceRepo, tx, policy, nil, logger)
	invoiceService := service.NewInvoiceService(invoiceRepo, customerRepo, tx, policy, nil, logger)
	salesService := service.NewSalesService(invoiceRepo, cfg.Sales.MaxRangeDays)

	// 7. Setup router
	router, err := handler.SetupRouter(cfg, logger, jwtManager, handler.Handlers{
		Auth:     handler.NewAuthHandler(authService, logger),
		Customer: handler.NewCustomerHandler(customerService, logger),
		Invoice:  handler.NewInvoiceHandler(invoiceService, logger),
		Sales:    handler.NewSalesHandler(salesService, logger),
	})
	if err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}

	// 8. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 9. Start server with graceful shutdown
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// 10. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exited gracefully")
	return nil
}
