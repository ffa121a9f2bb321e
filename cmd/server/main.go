package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	config "github.com/driftmail/newsletter/configs"
	"github.com/driftmail/newsletter/internal/application/services"
	"github.com/driftmail/newsletter/internal/core/ports"
	"github.com/driftmail/newsletter/internal/infrastructure/db"
	"github.com/driftmail/newsletter/internal/infrastructure/email"
	"github.com/driftmail/newsletter/internal/infrastructure/health"
	"github.com/driftmail/newsletter/internal/infrastructure/httpserver"
	"github.com/driftmail/newsletter/internal/infrastructure/repositories"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting newsletter subscription service...")

	// Initialize database (apply pool settings from config)
	database, err := db.NewDatabaseWithConfig(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	logger.Info("Connected to database successfully")

	// Run migrations
	if err := database.Migrate("./migrations"); err != nil {
		logger.Warn("Failed to run migrations:", err)
	}

	// Initialize repositories
	subscriberRepo := repositories.NewSubscriberRepository(database, logger)

	// Pick the notification channel configured at startup; handlers never
	// inspect the environment themselves.
	var notifier ports.ConfirmationNotifier
	switch cfg.Notification.Channel {
	case config.ChannelEchoLink:
		notifier = email.NewLinkEchoNotifier(logger)
		logger.Warn("Running with echo-link notification channel - no emails will be sent")
	default:
		emailConfig := &email.EmailConfig{
			SendGridAPIKey: cfg.Email.SendGridAPIKey,
			FromEmail:      cfg.Email.FromEmail,
			FromName:       cfg.Email.FromName,
		}
		notifier, err = email.NewSendGridNotifier(emailConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize email notifier:", err)
		}
	}

	subscriptionService := services.NewSubscriptionService(
		subscriberRepo,
		database,
		notifier,
		cfg.Server.BaseURL,
		logger,
	)

	// Create server configuration
	serverConfig := &httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	deps := httpserver.ServerDeps{
		SubscriptionService: subscriptionService,
		HealthCheckers:      []ports.HealthChecker{health.NewDBHealthChecker(database)},
	}

	server := httpserver.NewServer(serverConfig, logger, deps)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server:", err)
		}
	}()

	logger.Infof("Server started on %s:%s", cfg.Server.Host, cfg.Server.Port)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
