package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bourse/api"
	"bourse/config"
	"bourse/database"
	"bourse/events"
	"bourse/repository"
	"bourse/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting bourse...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	db, err := database.NewConnection(ctx, cfg.DatabaseURL, database.PoolSettings{
		MaxConns:       int32(cfg.DBMaxConns),
		MinConns:       int32(cfg.DBMinConns),
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	simulationService := service.NewSimulationService(uowFactory, cfg.TotalDays)
	tradingService := service.NewTradingService(uowFactory)
	leaderboardService := service.NewLeaderboardService(uowFactory)
	scheduler := service.NewScheduler(uowFactory, simulationService, cfg.DefaultIntervalMinutes)

	// Portfolio snapshots go stale whenever money moves
	eventBus.Subscribe(events.EventTypeDayChanged, func(ctx context.Context, event events.Event) {
		leaderboardService.InvalidateAll()
	})
	eventBus.Subscribe(events.EventTypeSimulationReset, func(ctx context.Context, event events.Event) {
		leaderboardService.InvalidateAll()
	})
	eventBus.Subscribe(events.EventTypeTradesExecuted, func(ctx context.Context, event events.Event) {
		if traded, ok := event.(events.TradesExecutedEvent); ok {
			leaderboardService.Invalidate(traded.ParticipantID)
		}
	})

	// Re-arm the auto-advance timer from the persisted config
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer scheduler.Stop()

	// Initialize HTTP server
	server := api.New(simulationService, tradingService, leaderboardService, scheduler, uowFactory, cfg.StartingBalance)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Infof("HTTP server running in %s mode", cfg.Environment)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}

	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return nil
}
