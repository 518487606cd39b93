package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tcgcompanion/backend/api/middleware"
	"github.com/tcgcompanion/backend/api/responses"
	"github.com/tcgcompanion/backend/api/validators"
	"github.com/tcgcompanion/backend/internal/cards"
	"github.com/tcgcompanion/backend/pkg/db/models"
	pkgerrors "github.com/tcgcompanion/backend/pkg/errors"
	"github.com/tcgcompanion/backend/pkg/logger"
)

type cardUploadURLRequest struct {
	ContentType string `json:"content_type" validate:"required,startswith=image/"`
}

type cardCreateRequest struct {
	ImagePath string `json:"image_path" validate:"required,startswith=cards/"`
}

type cardResponse struct {
	ID             string    `json:"id"`
	ImagePath      string    `json:"image_path"`
	MatchingStatus string    `json:"matching_status"`
	RefCardID      *string   `json:"ref_card_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toCardResponse(card *models.Card) cardResponse {
	resp := cardResponse{
		ID:             card.ID.String(),
		ImagePath:      card.ImagePath,
		MatchingStatus: string(card.MatchingStatus),
		CreatedAt:      card.CreatedAt,
		UpdatedAt:      card.UpdatedAt,
	}
	if card.RefCardID != nil {
		id := card.RefCardID.String()
		resp.RefCardID = &id
	}
	return resp
}

// CardUploadURL issues a signed PUT URL for a new card photo.
func CardUploadURL(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cards service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload cardUploadURLRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		target, err := svc.CreateUploadURL(ctx, userID, validators.SanitizeString(payload.ContentType, 100))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, target)
	}
}

// CardCreate registers an uploaded photo and queues it for matching.
func CardCreate(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cards service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload cardCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		card, err := svc.Create(ctx, userID, validators.SanitizeString(payload.ImagePath, 512))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toCardResponse(card))
	}
}

// CardList returns the caller's cards, unmatched first.
func CardList(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cards service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		owned, err := svc.List(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]cardResponse, len(owned))
		for i := range owned {
			out[i] = toCardResponse(&owned[i])
		}
		responses.WriteSuccess(w, out)
	}
}

// CardDetail returns one owned card.
func CardDetail(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cards service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cardID, err := uuid.Parse(chi.URLParam(r, "cardId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid card id"))
			return
		}

		card, err := svc.Get(ctx, userID, cardID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, toCardResponse(card))
	}
}

// CardDelete removes one owned card.
func CardDelete(svc cards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cards service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cardID, err := uuid.Parse(chi.URLParam(r, "cardId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid card id"))
			return
		}

		if err := svc.Delete(ctx, userID, cardID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func requestUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return userID, nil
}
