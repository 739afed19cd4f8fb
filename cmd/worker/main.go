package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/troupekit/troupe-backend/internal/donors"
	"github.com/troupekit/troupe-backend/internal/mailer"
	"github.com/troupekit/troupe-backend/internal/payments"
	"github.com/troupekit/troupe-backend/pkg/config"
	"github.com/troupekit/troupe-backend/pkg/db"
	"github.com/troupekit/troupe-backend/pkg/logger"
	"github.com/troupekit/troupe-backend/pkg/metrics"
	"github.com/troupekit/troupe-backend/pkg/migrate"
	"github.com/troupekit/troupe-backend/pkg/pubsub"
)

// The worker drains payment confirmations from the processor's Pub/Sub
// subscription. Delivery is at-least-once; the sink's payment-reference
// dedupe makes replays harmless.
func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)
	mail := mailer.New(cfg.Sendgrid, logg)

	paymentsService := payments.NewService(
		payments.NewRepository(dbClient.DB()),
		donors.NewRepository(dbClient.DB()),
		dbClient,
		logg,
		paymentMetrics,
		mail,
	)

	consumer, err := payments.NewConsumer(paymentsService, pubsubClient.ConfirmationSubscription(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create confirmation consumer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting confirmation worker")

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "confirmation worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "confirmation worker shutting down gracefully")
}
