package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"perfpredict/internal/classifier"
	"perfpredict/internal/config"
	"perfpredict/internal/logger"
	"perfpredict/internal/metrics"
	"perfpredict/internal/repositories"
	"perfpredict/internal/server"
	"perfpredict/internal/services"
	"perfpredict/pkg/rabbitmq"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "perfpredict: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	if cfg.UsesDefaultSecret() {
		log.Warn("JWT_SECRET is not set; using the development default")
	}

	// --- Classifier ---
	model, err := classifier.Load(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("load classifier: %w", err)
	}
	log.WithFields(logrus.Fields{
		"path":    cfg.ModelPath,
		"classes": model.Classes,
		"trees":   len(model.Trees),
	}).Info("Classifier loaded")

	// --- Storage (decided once for the process lifetime) ---
	store, mode := repositories.Open(context.Background(), repositories.Config{
		Driver:       cfg.DatabaseDriver,
		DSN:          cfg.DatabaseDSN,
		ProbeTimeout: cfg.DatabaseProbeTimeout,
	}, log)
	defer store.Close()
	metrics.SetStorageMode(string(mode), mode.Persistent())

	// --- Prediction events (optional) ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.WithError(err).Warn("RabbitMQ unavailable; prediction events disabled")
		} else {
			defer mqClient.Close()
			publisher = mqClient
			log.Info("Publishing prediction events to RabbitMQ")
		}
	}

	// --- Services ---
	authService := services.NewAuthService(store, cfg.JWTSecret, log)
	predictionService := services.NewPredictionService(store, publisher, log)
	statsService := services.NewStatsService(predictionService)
	inferenceService := services.NewInferenceService(model, predictionService, log)

	app := server.New(server.Deps{
		Auth:        authService,
		Predictions: predictionService,
		Stats:       statsService,
		Inference:   inferenceService,
		StorageMode: mode,
		Log:         log,
		AccessLog:   os.Stdout,
	})

	// --- Start HTTP Server ---
	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port":         cfg.AppPort,
			"storage_mode": mode,
		}).Info("Starting server")
		serverErr <- app.Listen(cfg.AppPort)
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Error("Error during Fiber shutdown")
	}
	log.Info("Server gracefully stopped")
	return nil
}
