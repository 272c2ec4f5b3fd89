package main

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"asset-service/internal/api"
	"asset-service/internal/config"
	"asset-service/internal/dashboard"
	"asset-service/internal/db"
	"asset-service/internal/events"
	"asset-service/internal/health"
	"asset-service/internal/logging"
	"asset-service/internal/maintenance"
	"asset-service/internal/notifier"
	"asset-service/internal/scheduler"
	"asset-service/internal/ws"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// Connect to database
	dbConn, err := db.New(cfg.DB.DSN)
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()

	classifier := health.Config{MinCompletedCorrectives: cfg.Classifier.MinCompletedCorrectives}
	hub := ws.NewHub(logger)
	alerter := notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)

	// Kafka wiring is optional: an empty broker runs the service without
	// lifecycle events.
	var wg sync.WaitGroup
	var publisher *events.Publisher
	var consumer *events.Consumer
	var workflowPublisher maintenance.EventPublisher
	if cfg.Kafka.Broker != "" {
		publisher = events.NewPublisher([]string{cfg.Kafka.Broker}, cfg.Kafka.Topic, logger)
		workflowPublisher = publisher
		consumer = events.NewConsumer([]string{cfg.Kafka.Broker}, cfg.Kafka.Topic, cfg.Kafka.GroupID, dbConn, hub, alerter, classifier, logger)
		consumer.Start(&wg)
		logger.Infof("Kafka wired with topic %s", cfg.Kafka.Topic)
	}

	workflow := maintenance.New(dbConn, logger, workflowPublisher)
	facade := dashboard.New(dbConn, logger, classifier)

	recomputer := scheduler.New(dbConn, logger, classifier, cfg.Recompute.Workers)
	if err := recomputer.Schedule(cfg.Recompute.Cron); err != nil {
		logger.Errorf("Failed to schedule nightly recompute: %v", err)
		log.Fatalf("Invalid recompute schedule %q: %v", cfg.Recompute.Cron, err)
	}

	router := api.NewRouter(dbConn, workflow, facade, recomputer, hub, logger, cfg)
	go func() {
		logger.Infof("Starting API server on %s", cfg.API.Port)
		if err := router.Run(cfg.API.Port); err != nil {
			logger.Errorf("API server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down")
	recomputer.Stop()
	if consumer != nil {
		consumer.Close()
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Errorf("Failed to close event publisher: %v", err)
		}
	}
	wg.Wait()
}
