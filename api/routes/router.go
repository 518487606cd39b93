package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tcgcompanion/backend/api/controllers"
	"github.com/tcgcompanion/backend/api/middleware"
	"github.com/tcgcompanion/backend/internal/cards"
	"github.com/tcgcompanion/backend/internal/refcards"
	"github.com/tcgcompanion/backend/pkg/bigquery"
	"github.com/tcgcompanion/backend/pkg/config"
	"github.com/tcgcompanion/backend/pkg/db"
	"github.com/tcgcompanion/backend/pkg/logger"
	"github.com/tcgcompanion/backend/pkg/redis"
	"github.com/tcgcompanion/backend/pkg/storage/gcs"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gcsClient gcs.Pinger,
	bigqueryClient bigquery.Pinger,
	cardsService cards.Service,
	refCardsService refcards.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, gcsClient, bigqueryClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/cards", func(r chi.Router) {
			r.Post("/upload-url", controllers.CardUploadURL(cardsService, logg))
			r.Post("/", controllers.CardCreate(cardsService, logg))
			r.Get("/", controllers.CardList(cardsService, logg))
			r.Get("/{cardId}", controllers.CardDetail(cardsService, logg))
			r.Delete("/{cardId}", controllers.CardDelete(cardsService, logg))
		})

		r.Route("/refcards", func(r chi.Router) {
			r.Get("/{refCardId}", controllers.RefCardDetail(refCardsService, logg))
		})
	})

	return r
}
