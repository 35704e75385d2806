// Command sync runs one reconciliation of the JPL feeds into the database
// and exits. Schedule it externally (cron, Kubernetes CronJob).
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/orbitwatch/neo-data-service/internal/adapter/cad"
	kafkaadapter "github.com/orbitwatch/neo-data-service/internal/adapter/kafka"
	"github.com/orbitwatch/neo-data-service/internal/adapter/sbdb"
	"github.com/orbitwatch/neo-data-service/internal/adapter/sentry"
	"github.com/orbitwatch/neo-data-service/internal/config"
	"github.com/orbitwatch/neo-data-service/internal/observability"
	"github.com/orbitwatch/neo-data-service/internal/store"
	"github.com/orbitwatch/neo-data-service/internal/sync"
)

func main() {
	if err := run(); err != nil {
		slog.Error("sync failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(db); err != nil {
			logger.Error("database close error", "error", err)
		}
	}()

	asteroidFeed := sbdb.NewClient(cfg.FeedBaseURL, cfg.FeedTimeout, logger)
	approachFeed := cad.NewClient(cfg.FeedBaseURL, cfg.FeedTimeout, logger)

	sentryClient := sentry.NewClient(cfg.FeedBaseURL, cfg.FeedTimeout, logger)
	cached := sentry.NewCachedClient(sentryClient, cfg.SentryCacheSize)
	cached.OnLookup(func(hit bool) {
		result := "miss"
		if hit {
			result = "hit"
		}
		metrics.SentryCache.WithLabelValues(result).Inc()
	})
	threatFeed := sentry.NewFeed(sentryClient, cached, logger)

	// Event publishing is feature-flagged via KAFKA_BROKERS / KAFKA_EVENTS_ENABLED.
	var publisher sync.EventPublisher
	if cfg.KafkaEnabled {
		kp := kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		publisher = kp
		logger.Info("sync event publishing enabled", "topic", cfg.KafkaSyncTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("sync event publishing disabled")
	}

	service := sync.New(
		asteroidFeed,
		approachFeed,
		threatFeed,
		sync.NewStorage(store.New(db)),
		publisher,
		sync.Options{
			AsteroidLimit: cfg.SyncAsteroidLimit,
			ApproachDays:  cfg.SyncApproachDays,
			MaxDistanceAU: cfg.SyncMaxDistanceAU,
		},
		logger,
		metrics,
	)

	_, err = service.Run(ctx)
	return err
}
