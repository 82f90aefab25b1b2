package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/amirhossein-jamali/investment-ledger/internal/app"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/routes"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/logger"
	timeProvider "github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/config"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger, err := logger.NewZapLogger(logger.Options{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		CallerInfo: cfg.Logger.CallerInfo,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = appLogger.Flush() }()

	tp := timeProvider.NewRealTimeProvider()

	container, err := app.Build(context.Background(), cfg, appLogger, tp)
	if err != nil {
		appLogger.Error("Failed to start services", map[string]any{"error": err.Error()})
		_ = appLogger.Flush()
		os.Exit(1)
	}

	// A nil probe reports the memory store
	var probe handler.DatabaseProbe
	if container.DB != nil {
		probe = container.DB
	}

	router := gin.New()
	routes.SetupMiddlewares(router, appLogger, tp)
	routes.SetupRoutes(router, routes.Handlers{
		Health:      handler.NewHealthHandler(probe, tp, appLogger),
		User:        handler.NewUserHandler(container.Users, appLogger),
		Payment:     handler.NewPaymentHandler(container.Payment, appLogger),
		Investment:  handler.NewInvestmentHandler(container.Investment, tp, appLogger),
		Catalog:     handler.NewCatalogHandler(container.Catalog, appLogger),
		Transaction: handler.NewTransactionHandler(container.Ledger, appLogger),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Starting server", map[string]any{
			"addr":   server.Addr,
			"env":    cfg.Environment,
			"store":  cfg.Ledger.Store,
			"locks":  cfg.Lock.Driver,
			"notify": cfg.Notification.Driver,
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	exitCode := 0
	select {
	case <-quit:
	case err := <-serverErr:
		appLogger.Error("Server failed", map[string]any{"error": err.Error()})
		exitCode = 1
	}

	appLogger.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	// In-flight ledger work has finished once the server is down
	container.Close(ctx)

	appLogger.Info("Server exited gracefully", nil)
	if exitCode != 0 {
		_ = appLogger.Flush()
		os.Exit(exitCode)
	}
}
