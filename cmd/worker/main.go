package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tcgcompanion/backend/internal/analytics/writer"
	"github.com/tcgcompanion/backend/internal/cards"
	"github.com/tcgcompanion/backend/internal/matching"
	"github.com/tcgcompanion/backend/internal/refcards"
	"github.com/tcgcompanion/backend/pkg/bigquery"
	"github.com/tcgcompanion/backend/pkg/config"
	"github.com/tcgcompanion/backend/pkg/db"
	"github.com/tcgcompanion/backend/pkg/env"
	"github.com/tcgcompanion/backend/pkg/gemini"
	"github.com/tcgcompanion/backend/pkg/logger"
	"github.com/tcgcompanion/backend/pkg/metrics"
	"github.com/tcgcompanion/backend/pkg/outbox"
	"github.com/tcgcompanion/backend/pkg/pubsub"
	"github.com/tcgcompanion/backend/pkg/retry"
	"github.com/tcgcompanion/backend/pkg/storage/gcs"
)

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

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}

	bigqueryClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap bigquery", err)
		os.Exit(1)
	}
	defer func() {
		if err := bigqueryClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing bigquery", err)
		}
	}()

	geminiClient, err := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		logg.Error(context.Background(), "failed to create gemini client", err)
		os.Exit(1)
	}

	extractor, err := matching.NewExtractor(geminiClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create extractor", err)
		os.Exit(1)
	}
	matcher, err := matching.NewMatcher(geminiClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create matcher", err)
		os.Exit(1)
	}

	cardsRepo := cards.NewRepository(dbClient.DB())
	cardsService, err := cards.NewService(cards.ServiceParams{
		Repo:         cardsRepo,
		Tx:           dbClient,
		Outbox:       outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Signer:       gcsClient,
		UploadExpiry: cfg.GCS.UploadURLExpiry,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cards service", err)
		os.Exit(1)
	}

	refCardsService, err := refcards.NewService(refcards.NewRepository(dbClient.DB()), cfg.Matching.CandidateLimit)
	if err != nil {
		logg.Error(context.Background(), "failed to create refcards service", err)
		os.Exit(1)
	}

	matchEvents, err := writer.New(bigqueryClient, writer.Config{
		MatchEventsTable: cfg.BigQuery.MatchEventsTable,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create match event writer", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	matchingMetrics := metrics.NewMatchingMetrics(registry)

	pipeline, err := matching.NewPipeline(matching.PipelineParams{
		Images:    gcsClient,
		Cards:     cardsService,
		Finder:    refCardsService,
		Extractor: extractor,
		Matcher:   matcher,
		Retry: retry.Policy{
			MaxAttempts: cfg.Gemini.Retries,
			Delay:       cfg.Gemini.RetryDelay,
		},
		Metrics:   matchingMetrics,
		Analytics: matchEvents,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create matching pipeline", err)
		os.Exit(1)
	}

	consumer, err := matching.NewConsumer(pipeline, cardsRepo, pubsubClient.CardsSubscription(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create matching consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		PubSub:      pubsubClient,
		GCS:         gcsClient,
		BigQuery:    bigqueryClient,
		Consumer:    consumer,
		Registry:    registry,
		MetricsAddr: ":" + env.Get("TCGC_METRICS_PORT", "9090"),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "worker",
	})
	logg.Info(ctx, "starting matching worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
