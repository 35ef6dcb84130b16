package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"brawl-tracker/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	BSAPIToken      string
	SheetID         string
	CredentialsFile string
	ServerPort      string
	LogLevel        string
	SyncInterval    time.Duration
	Retention       time.Duration
	SweepHourUTC    int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		BSAPIToken:      getEnv("BS_API_TOKEN", ""),
		SheetID:         getEnv("SHEET_ID", ""),
		CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		SyncInterval:    getDuration("SYNC_INTERVAL", constants.SyncInterval),
		Retention:       time.Duration(getInt("RETENTION_DAYS", constants.RetentionDays)) * 24 * time.Hour,
		SweepHourUTC:    getInt("SWEEP_HOUR_UTC", constants.SweepAnchorHourUTC),
	}

	if cfg.BSAPIToken == "" {
		return nil, fmt.Errorf("BS_API_TOKEN is required")
	}
	if cfg.SheetID == "" {
		return nil, fmt.Errorf("SHEET_ID is required")
	}
	if cfg.SweepHourUTC < 0 || cfg.SweepHourUTC > 23 {
		return nil, fmt.Errorf("SWEEP_HOUR_UTC must be in [0,23], got %d", cfg.SweepHourUTC)
	}

	logger.Info().
		Str("sheet_id", cfg.SheetID).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("sync_interval", cfg.SyncInterval).
		Dur("retention", cfg.Retention).
		Int("sweep_hour_utc", cfg.SweepHourUTC).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

var Module = fx.Provide(Load)
