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
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/di"
	"github.com/Incognitol07/event-management-system-sub001/internal/metrics"
	"github.com/Incognitol07/event-management-system-sub001/internal/repository"
	"github.com/Incognitol07/event-management-system-sub001/internal/worker"
	"github.com/Incognitol07/event-management-system-sub001/pkg/config"
	"github.com/Incognitol07/event-management-system-sub001/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: "capacity-auditor",
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Capacity Auditor...")

	if cfg.Database.Driver == "memory" {
		appLog.Fatal("Capacity auditor needs the postgres driver")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics.Init()

	db, err := di.OpenPostgres(ctx, &cfg.Database)
	if err != nil {
		appLog.Fatal("Database unavailable", zap.Error(err))
	}
	defer db.Close()

	auditor := worker.NewCapacityAuditor(repository.NewPostgresStore(db.Pool()), &worker.CapacityAuditorConfig{
		Schedule:    cfg.Audit.Schedule,
		HorizonDays: cfg.Audit.HorizonDays,
		RunOnStart:  cfg.Audit.RunOnStart,
	})
	if err := auditor.Start(ctx); err != nil {
		appLog.Fatal("Failed to start capacity auditor", zap.Error(err))
	}

	// Expose the over-commit gauges for scraping
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Audit.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 2 * time.Second,
	}
	go func() {
		appLog.Info("Metrics listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("Metrics server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down capacity auditor...")
	auditor.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	appLog.Info("Capacity auditor stopped")
}
