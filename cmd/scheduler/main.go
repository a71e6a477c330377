package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	syncsvc "fundtrack-backend/internal/application/sync"
	"fundtrack-backend/internal/config"
	"fundtrack-backend/internal/eastmoney"
	"fundtrack-backend/internal/infrastructure/database"
	"fundtrack-backend/internal/scheduler"
	"fundtrack-backend/internal/scheduler/jobs"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database open failed")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("Database migration failed")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis URL invalid")
		}
		rdb = redis.NewClient(opts)
	}

	gateway := eastmoney.NewClient(eastmoney.Config{
		RequestInterval: cfg.FetchPause,
		Cache:           rdb,
	}, log.Logger)

	syncService := &syncsvc.Service{
		DB:      db,
		Gateway: gateway,
		Log:     log.Logger,
		Pause:   cfg.FetchPause,
	}

	sched := scheduler.New(log.Logger)
	if err := sched.AddJob(cfg.SyncSchedule, &jobs.HistorySyncJob{Sync: syncService}); err != nil {
		log.Fatal().Err(err).Msg("History sync job registration failed")
	}
	if err := sched.AddJob(cfg.EstimateSchedule, &jobs.EstimateRefreshJob{Sync: syncService}); err != nil {
		log.Fatal().Err(err).Msg("Estimate refresh job registration failed")
	}
	sched.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")
	sched.Stop()
}
