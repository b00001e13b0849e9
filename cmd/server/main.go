package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamestock/internal/clients/naver"
	"gamestock/internal/config"
	"gamestock/internal/database"
	"gamestock/internal/fallback"
	"gamestock/internal/registry"
	"gamestock/internal/scheduler"
	"gamestock/internal/server"
	"gamestock/internal/weekly"
	"gamestock/internal/weekly/handlers"
	"gamestock/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting weekly stock price service")

	// Initialize database
	db, err := database.New(database.Config{
		Path: cfg.DatabasePath(),
		Name: "stockprice",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Company registry
	reg := registry.Default()
	log.Info().Int("companies", reg.Len()).Msg("Company registry loaded")

	// Finance portal client (both providers)
	client := naver.NewClient(naver.Config{
		BaseURL:    cfg.NaverBaseURL,
		UserAgent:  cfg.UserAgent,
		Timeout:    cfg.RequestTimeout,
		MaxRetries: cfg.MaxRetries,
	}, log)

	// Core pipeline
	collector := weekly.NewCollector(weekly.CollectorConfig{
		Series:       client,
		MarketCaps:   client,
		Registry:     reg,
		LookbackDays: cfg.LookbackDays,
	}, log)
	factRepo := weekly.NewRepository(db.Conn(), log)
	jobRepo := weekly.NewJobRepository(db.Conn(), log)
	orchestrator := weekly.NewOrchestrator(collector, factRepo, jobRepo, log)
	fallbackReader := fallback.NewReader(cfg.FallbackPath, log)

	// Scheduled batch collection
	if cfg.BatchEnabled {
		sched := scheduler.New(log)
		batchJob := scheduler.NewBatchCollectJob(orchestrator, log)
		if err := sched.AddJob(cfg.BatchSchedule, batchJob); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.BatchSchedule).Msg("Failed to register batch job")
		}
		sched.Start()
		defer sched.Stop()
	} else {
		log.Info().Msg("Scheduled batch collection disabled")
	}

	// HTTP server
	h := handlers.NewHandler(collector, orchestrator, factRepo, jobRepo, reg, fallbackReader, log)
	srv := server.New(server.Config{
		Port:     cfg.Port,
		DevMode:  cfg.DevMode,
		Log:      log,
		DB:       db,
		Handlers: h,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
