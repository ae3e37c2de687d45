// Package main is the entry point for the riskcalc value-at-risk service.
// It serves VaR calculations over HTTP, caches daily price history in
// SQLite and keeps the cache fresh with a scheduled sync job.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/riskcalc/internal/clients/yahoo"
	"github.com/aristath/riskcalc/internal/config"
	"github.com/aristath/riskcalc/internal/database"
	"github.com/aristath/riskcalc/internal/modules/history"
	historyhandlers "github.com/aristath/riskcalc/internal/modules/history/handlers"
	"github.com/aristath/riskcalc/internal/modules/reports"
	reportshandlers "github.com/aristath/riskcalc/internal/modules/reports/handlers"
	"github.com/aristath/riskcalc/internal/modules/returns"
	"github.com/aristath/riskcalc/internal/modules/risk"
	riskhandlers "github.com/aristath/riskcalc/internal/modules/risk/handlers"
	"github.com/aristath/riskcalc/internal/scheduler"
	"github.com/aristath/riskcalc/internal/server"
	"github.com/aristath/riskcalc/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting riskcalc")

	// Price history lives in its own database. It is rebuildable from the
	// upstream provider, so it uses the cache profile.
	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileCache,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	reportsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "reports.db"),
		Profile: database.ProfileStandard,
		Name:    "reports",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open reports database")
	}
	defer reportsDB.Close()

	store := history.NewStore(historyDB.Conn(), log)
	if err := store.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate history database")
	}

	reportRepo := reports.NewRepository(reportsDB.Conn(), log)
	if err := reportRepo.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate reports database")
	}

	var provider history.Provider
	if cfg.FetchEnabled {
		provider = yahoo.NewClient(log)
	} else {
		log.Warn().Msg("Upstream fetching disabled, serving stored prices only")
	}

	source := history.NewSource(store, provider, cfg.LookbackPeriod, log)

	builder := returns.NewBuilder(log)
	estimator := risk.NewEstimator(log)
	riskService := risk.NewService(source, builder, estimator, log)

	srv := server.New(server.Config{
		Log:             log,
		Port:            cfg.Port,
		DevMode:         cfg.DevMode,
		RiskHandlers:    riskhandlers.NewHandler(riskService, reportRepo, log),
		HistoryHandlers: historyhandlers.NewHandler(store, source, log),
		ReportsHandlers: reportshandlers.NewHandler(reportRepo, log),
	})

	sched := scheduler.New(log)
	if cfg.FetchEnabled && cfg.SyncSchedule != "" {
		job := scheduler.NewPriceSyncJob(store, source, log)
		if err := sched.AddJob(cfg.SyncSchedule, job); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.SyncSchedule).Msg("Failed to register price sync job")
		}
		sched.Start()
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
