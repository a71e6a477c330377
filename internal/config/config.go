package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	RedisURL    string

	// Cron schedules for the two background jobs.
	SyncSchedule     string
	EstimateSchedule string

	// Pause between consecutive upstream calls inside a sweep.
	FetchPause time.Duration
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL")
	if dbURL == "" {
		dbURL = "fundtrack.db"
	}

	// Daily history sync at 01:00; estimates every 30 minutes during CN
	// trading hours on weekdays.
	syncSchedule := viper.GetString("SYNC_SCHEDULE")
	if syncSchedule == "" {
		syncSchedule = "0 1 * * *"
	}
	estimateSchedule := viper.GetString("ESTIMATE_SCHEDULE")
	if estimateSchedule == "" {
		estimateSchedule = "*/30 9-14 * * MON-FRI"
	}

	pauseMs := viper.GetInt("FETCH_PAUSE_MS")
	if pauseMs <= 0 {
		pauseMs = 200
	}

	return &Config{
		Env:              env,
		Port:             port,
		DatabaseURL:      dbURL,
		RedisURL:         viper.GetString("REDIS_URL"),
		SyncSchedule:     syncSchedule,
		EstimateSchedule: estimateSchedule,
		FetchPause:       time.Duration(pauseMs) * time.Millisecond,
	}, nil
}
