package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tcgcompanion/backend/api/responses"
	"github.com/tcgcompanion/backend/internal/refcards"
	"github.com/tcgcompanion/backend/pkg/db/models"
	pkgerrors "github.com/tcgcompanion/backend/pkg/errors"
	"github.com/tcgcompanion/backend/pkg/logger"
)

type refCardResponse struct {
	ID         string  `json:"id"`
	TcgID      string  `json:"tcg_id"`
	TcgLocalID string  `json:"tcg_local_id"`
	Name       string  `json:"name"`
	ImageURL   *string `json:"image_url,omitempty"`
	SetName    string  `json:"set_name"`
	SetYear    *int    `json:"set_year,omitempty"`
}

func toRefCardResponse(card *models.RefCard) refCardResponse {
	return refCardResponse{
		ID:         card.ID.String(),
		TcgID:      card.TcgID,
		TcgLocalID: card.TcgLocalID,
		Name:       card.Name,
		ImageURL:   card.ImageURL,
		SetName:    card.SetName,
		SetYear:    card.SetYear,
	}
}

// RefCardDetail returns one catalog card.
func RefCardDetail(svc refcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refcards service unavailable"))
			return
		}

		refCardID, err := uuid.Parse(chi.URLParam(r, "refCardId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ref card id"))
			return
		}

		card, err := svc.Get(ctx, refCardID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, toRefCardResponse(card))
	}
}
