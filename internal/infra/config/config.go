package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// It is built once at startup and passed explicitly into constructors.
type AppConfig struct {
	DatabaseURL string
	HTTPPort    string
	LogLevel    string
	Environment string

	// AlertsTable is the live table protected by the backup/restore protocol.
	AlertsTable string

	// DistributionCron schedules periodic distribution runs. Empty disables
	// the scheduler (runs can still be triggered through the API).
	DistributionCron  string
	DistributionParts int

	AllowedOrigins []string

	// Optional Telegram run-outcome notifications.
	TelegramToken string
	AdminChatID   int64

	// Optional offsite snapshot archive.
	SnapshotBucket string
	AWSRegion      string
	AWSEndpointURL string
	AWSAccessKeyID string
	AWSSecretKey   string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables. Errors are
	// ignored if the file doesn't exist.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.HTTPPort = getEnv("HTTP_PORT", "8080")
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))
	cfg.AlertsTable = getEnv("ALERTS_TABLE", "job_alerts")
	cfg.DistributionCron = getEnv("DISTRIBUTION_CRON", "0 2 * * *")

	partsStr := getEnv("DISTRIBUTION_PARTS", "4")
	parts, err := strconv.Atoi(partsStr)
	if err != nil || parts < 1 {
		return nil, fmt.Errorf("invalid DISTRIBUTION_PARTS %q: must be a positive integer", partsStr)
	}
	cfg.DistributionParts = parts

	cfg.AllowedOrigins = strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ",")

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if chatIDStr := os.Getenv("ADMIN_CHAT_ID"); chatIDStr != "" {
		cfg.AdminChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_CHAT_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.AdminChatID == 0 {
		return nil, fmt.Errorf("ADMIN_CHAT_ID is not set but TELEGRAM_TOKEN is")
	}

	cfg.SnapshotBucket = os.Getenv("SNAPSHOT_BUCKET")
	cfg.AWSRegion = getEnv("AWS_REGION", "us-east-1")
	cfg.AWSEndpointURL = os.Getenv("AWS_ENDPOINT_URL")
	cfg.AWSAccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
