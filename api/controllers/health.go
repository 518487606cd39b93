package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/tcgcompanion/backend/api/responses"
	"github.com/tcgcompanion/backend/pkg/bigquery"
	"github.com/tcgcompanion/backend/pkg/config"
	"github.com/tcgcompanion/backend/pkg/db"
	"github.com/tcgcompanion/backend/pkg/logger"
	"github.com/tcgcompanion/backend/pkg/redis"
	"github.com/tcgcompanion/backend/pkg/storage/gcs"
)

const readyCheckTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TCGC-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	gcsP gcs.Pinger,
	bigqueryP bigquery.Pinger,
) http.HandlerFunc {
	type check struct {
		name   string
		pinger interface {
			Ping(ctx context.Context) error
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-TCGC-Env", cfg.App.Env)

		checks := []check{
			{name: "db", pinger: dbP},
			{name: "redis", pinger: redisP},
			{name: "gcs", pinger: gcsP},
			{name: "bigquery", pinger: bigqueryP},
		}

		status := map[string]string{}
		healthy := true
		for _, c := range checks {
			if c.pinger == nil {
				status[c.name] = "skipped"
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
			err := c.pinger.Ping(ctx)
			cancel()
			if err != nil {
				healthy = false
				status[c.name] = "down"
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "component", c.name), "readiness check failed", err)
				}
				continue
			}
			status[c.name] = "ok"
		}

		if !healthy {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
