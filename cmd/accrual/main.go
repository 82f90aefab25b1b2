// Command accrual credits daily profit on active holdings. It runs a pass at
// start and then on every tick of accrual.interval until interrupted.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirhossein-jamali/investment-ledger/internal/app"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/investment"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/logger"
	timeProvider "github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	once := flag.Bool("once", false, "run a single accrual pass and exit")
	asOf := flag.String("as-of", "", "run a single pass as if the clock read this RFC3339 time")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
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

	var accrualClock *timeProvider.ManualTimeProvider
	if *asOf != "" {
		at, err := time.Parse(time.RFC3339, *asOf)
		if err != nil {
			log.Fatalf("Invalid -as-of value: %v", err)
		}
		accrualClock = timeProvider.NewManualTimeProvider(at)
		*once = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.Build(ctx, cfg, appLogger, timeProvider.NewRealTimeProvider())
	if err != nil {
		appLogger.Error("Failed to start services", map[string]any{"error": err.Error()})
		return 1
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		container.Close(closeCtx)
	}()

	accrual := container.Investment
	if accrualClock != nil {
		accrual = container.InvestmentAt(accrualClock)
	}

	failed := runPass(ctx, container, accrual)
	if *once {
		if failed {
			return 1
		}
		return 0
	}

	ticker := time.NewTicker(cfg.Accrual.Interval)
	defer ticker.Stop()

	appLogger.Info("Accrual scheduler started", map[string]any{
		"interval": cfg.Accrual.Interval.String(),
	})
	for {
		select {
		case <-ctx.Done():
			appLogger.Info("Accrual scheduler stopping", nil)
			return 0
		case <-ticker.C:
			runPass(ctx, container, accrual)
		}
	}
}

// runPass accrues due profit and sweeps expired table locks; it reports
// whether the pass failed outright
func runPass(ctx context.Context, c *app.Container, accrual *investment.Service) bool {
	report, err := accrual.AccrueDailyProfit(ctx)
	if err != nil {
		c.Logger.Error("Accrual pass failed", map[string]any{"error": err.Error()})
		return true
	}

	c.Logger.Info("Accrual pass finished", map[string]any{
		"scanned":        report.HoldingsScanned,
		"credits":        report.Credits,
		"resumed":        report.Resumed,
		"matured":        report.Matured,
		"total_credited": report.TotalCredited.StringFixed(2),
		"failures":       len(report.Failures),
		"duration_ms":    report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	})

	if c.Locks != nil {
		removed, err := c.Locks.CleanupExpiredLocks(ctx)
		if err != nil {
			c.Logger.Warn("Failed to clean up expired user locks", map[string]any{"error": err.Error()})
		} else if removed > 0 {
			c.Logger.Info("Removed expired user locks", map[string]any{"count": removed})
		}
	}
	return false
}
