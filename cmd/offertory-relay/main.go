package main

import (
	"context"
	"os"
	"time"

	"offertory/internal/amqp"
	"offertory/internal/api"
	"offertory/internal/cli"
	"offertory/internal/log"
	"offertory/internal/notify"
	"offertory/internal/session"
	"offertory/internal/worker"
)

const retryInterval = time.Minute

func main() {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentRelay)
	logger.Info("Starting offertory-relay", log.FieldOperation, log.OpStartup)

	repo, err := cli.InitSQLite(logger, cfg.SessionDBPath)
	if err != nil {
		os.Exit(1)
	}
	defer repo.Close()

	client, err := api.New(api.Options{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.APIRateLimit,
		CacheTTL:  cfg.CacheTTL,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("Failed to create API client", log.FieldError, err)
		os.Exit(1)
	}

	sess := session.New(client, repo, logger)
	if err := sess.Restore(context.Background()); err != nil {
		logger.Error("Failed to restore session", log.FieldError, err)
		os.Exit(1)
	}
	if !sess.IsAuthenticated() {
		logger.Error("No signed-in member; run 'offertory login' first")
		os.Exit(1)
	}

	// The broker is optional; without it notifications are only recorded.
	var pub worker.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logger)
		connectCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := amqpClient.Connect(connectCtx, 3); err != nil {
			// Publishing reconnects lazily and pending records are retried.
			logger.Warn("AMQP broker unavailable at startup", log.FieldError, err)
		}
		cancel()
		pub = amqpClient
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	notifier := notify.New(notify.Options{
		URL:         cfg.WSURL,
		MaxAttempts: cfg.NotifyMaxRetries,
		BaseDelay:   cfg.NotifyBaseDelay,
		Logger:      logger,
	})
	unbind := sess.Bind(notifier, client)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		unbind()
		notifier.Close()
	})

	relay := worker.NewRelay(repo, pub, worker.DefaultBatchSize, logger)
	if err := relay.Run(ctx, notifier, retryInterval); err != nil {
		logger.Error("Relay stopped", log.FieldError, err)
	}

	cli.WaitForShutdown(ctx, done)
	if amqpClient != nil {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close failed", log.FieldError, err)
		}
	}
	logger.Info("Relay stopped gracefully", log.FieldOperation, log.OpShutdown)
}
