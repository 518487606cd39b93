package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/tcgcompanion/backend/internal/catalog"
	"github.com/tcgcompanion/backend/internal/refcards"
	"github.com/tcgcompanion/backend/internal/sets"
	"github.com/tcgcompanion/backend/pkg/config"
	"github.com/tcgcompanion/backend/pkg/db"
	"github.com/tcgcompanion/backend/pkg/logger"
	"github.com/tcgcompanion/backend/pkg/migrate"
	"github.com/tcgcompanion/backend/pkg/tcgdex"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "catalog-sync"})

	setID := flag.String("set", "", "sync a single set by its feed id")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "catalog-sync",
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

	ingestor, err := catalog.NewIngestor(catalog.IngestorParams{
		Feed:        tcgdex.NewClient(tcgdex.WithBaseURL(cfg.Catalog.BaseURL)),
		Sets:        sets.NewRepository(dbClient.DB()),
		Cards:       refcards.NewRepository(dbClient.DB()),
		Concurrency: cfg.Catalog.BatchSize,
		UpsertChunk: cfg.Catalog.UpsertChunk,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog ingestor", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "catalog-sync",
	})
	logg.Info(ctx, "starting catalog sync")

	var report *catalog.Report
	if *setID != "" {
		report, err = ingestor.SyncOne(ctx, *setID)
	} else {
		report, err = ingestor.Sync(ctx)
	}
	if report != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"sets":        report.Sets,
			"cards":       report.Cards,
			"failed_sets": report.FailedSets,
		})
	}
	if err != nil {
		logg.Error(ctx, "catalog sync finished with errors", err)
		os.Exit(1)
	}

	logg.Info(ctx, "catalog sync completed")
}
