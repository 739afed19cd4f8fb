package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/troupekit/troupe-backend/api/routes"
	"github.com/troupekit/troupe-backend/internal/campaigns"
	"github.com/troupekit/troupe-backend/internal/donors"
	"github.com/troupekit/troupe-backend/internal/fees"
	"github.com/troupekit/troupe-backend/internal/mailer"
	"github.com/troupekit/troupe-backend/internal/payments"
	"github.com/troupekit/troupe-backend/internal/roster"
	"github.com/troupekit/troupe-backend/internal/ticketing"
	"github.com/troupekit/troupe-backend/pkg/config"
	"github.com/troupekit/troupe-backend/pkg/db"
	"github.com/troupekit/troupe-backend/pkg/logger"
	"github.com/troupekit/troupe-backend/pkg/metrics"
	"github.com/troupekit/troupe-backend/pkg/migrate"
	"github.com/troupekit/troupe-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	mail := mailer.New(cfg.Sendgrid, logg)
	rosterRepo := roster.NewRepository(dbClient.DB())
	donorsRepo := donors.NewRepository(dbClient.DB())

	ticketingService := ticketing.NewService(ticketing.NewRepository(dbClient.DB()), rosterRepo, dbClient, logg, mail)
	campaignsService := campaigns.NewService(campaigns.NewRepository(dbClient.DB()), rosterRepo, dbClient, logg)
	donorsService := donors.NewService(donorsRepo, dbClient, logg)
	feesService := fees.NewService(fees.NewRepository(dbClient.DB()), dbClient, logg)
	paymentsService := payments.NewService(payments.NewRepository(dbClient.DB()), donorsRepo, dbClient, logg, paymentMetrics, mail)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Registry:  registry,
			Ticketing: ticketingService,
			Campaigns: campaignsService,
			Donors:    donorsService,
			Fees:      feesService,
			Payments:  paymentsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
