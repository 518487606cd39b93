package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tcgcompanion/backend/internal/matching"
	"github.com/tcgcompanion/backend/pkg/bigquery"
	"github.com/tcgcompanion/backend/pkg/config"
	"github.com/tcgcompanion/backend/pkg/db"
	"github.com/tcgcompanion/backend/pkg/logger"
	"github.com/tcgcompanion/backend/pkg/pubsub"
	"github.com/tcgcompanion/backend/pkg/storage/gcs"
)

type ServiceParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          *db.Client
	PubSub      *pubsub.Client
	GCS         *gcs.Client
	BigQuery    *bigquery.Client
	Consumer    *matching.Consumer
	Registry    *prometheus.Registry
	MetricsAddr string
}

type Service struct {
	cfg         *config.Config
	logg        *logger.Logger
	db          *db.Client
	pubsub      *pubsub.Client
	gcs         *gcs.Client
	bigquery    *bigquery.Client
	consumer    *matching.Consumer
	registry    *prometheus.Registry
	metricsAddr string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.GCS == nil {
		return nil, errors.New("gcs client is required")
	}
	if params.BigQuery == nil {
		return nil, errors.New("bigquery client is required")
	}
	if params.Consumer == nil {
		return nil, errors.New("matching consumer is required")
	}

	return &Service{
		cfg:         params.Config,
		logg:        params.Logger,
		db:          params.DB,
		pubsub:      params.PubSub,
		gcs:         params.GCS,
		bigquery:    params.BigQuery,
		consumer:    params.Consumer,
		registry:    params.Registry,
		metricsAddr: params.MetricsAddr,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "gcs", s.gcs.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "bigquery", s.bigquery.Ping); err != nil {
		return err
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	metricsServer := s.startMetricsServer(ctx)
	if metricsServer != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.consumer.Run(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "worker context canceled")
			return ctx.Err()
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logg.Error(ctx, "consumer stopped unexpectedly", err)
				return err
			}
			return err
		case <-ticker.C:
		}
	}
}

func (s *Service) startMetricsServer(ctx context.Context) *http.Server {
	if s.registry == nil || s.metricsAddr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: s.metricsAddr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()

	s.logg.Info(s.logg.WithField(ctx, "addr", s.metricsAddr), "metrics server listening")
	return server
}
