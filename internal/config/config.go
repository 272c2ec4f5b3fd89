package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	Kafka struct {
		Broker  string
		Topic   string
		GroupID string
	}
	API struct {
		Port     string
		BasePath string
	}
	Logging struct {
		Dir   string
		Level string
	}
	Telegram struct {
		BotToken string
		ChatID   int64
	}
	Recompute struct {
		Cron    string
		Workers int
	}
	Classifier struct {
		MinCompletedCorrectives int
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	// Database DSN
	cfg.DB.DSN = os.Getenv("DB_DSN")

	// Kafka settings; an empty broker disables event publishing
	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")
	cfg.Kafka.GroupID = os.Getenv("KAFKA_GROUP_ID")

	// API settings
	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	// Logging
	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// Telegram alerting (optional)
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if id, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64); err == nil {
		cfg.Telegram.ChatID = id
	}

	// Batch recompute settings
	cfg.Recompute.Cron = os.Getenv("RECOMPUTE_CRON")
	if w, err := strconv.Atoi(os.Getenv("RECOMPUTE_WORKERS")); err == nil {
		cfg.Recompute.Workers = w
	}

	// Classifier settings
	if n, err := strconv.Atoi(os.Getenv("CLASSIFIER_MIN_CORRECTIVES")); err == nil {
		cfg.Classifier.MinCompletedCorrectives = n
	}

	// Validate required settings
	missing := []string{}
	if cfg.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	// Apply defaults
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "maintenance.events"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "asset-service"
	}
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v0"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Recompute.Cron == "" {
		cfg.Recompute.Cron = "0 2 * * *"
	}
	if cfg.Recompute.Workers == 0 {
		cfg.Recompute.Workers = 8
	}
	if cfg.Classifier.MinCompletedCorrectives == 0 {
		cfg.Classifier.MinCompletedCorrectives = 1
	}

	return cfg, nil
}
