package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tcgcompanion/backend/api/middleware"
	"github.com/tcgcompanion/backend/internal/cards"
	"github.com/tcgcompanion/backend/pkg/db/models"
	"github.com/tcgcompanion/backend/pkg/enums"
	"github.com/tcgcompanion/backend/pkg/logger"
	"github.com/tcgcompanion/backend/pkg/types"
)

type testCardsService struct {
	createUploadURLFn func(ctx context.Context, userID uuid.UUID, contentType string) (*cards.UploadTarget, error)
	createFn          func(ctx context.Context, userID uuid.UUID, imagePath string) (*models.Card, error)
	getFn             func(ctx context.Context, userID, cardID uuid.UUID) (*models.Card, error)
	listFn            func(ctx context.Context, userID uuid.UUID) ([]models.Card, error)
	deleteFn          func(ctx context.Context, userID, cardID uuid.UUID) error
}

func (s *testCardsService) CreateUploadURL(ctx context.Context, userID uuid.UUID, contentType string) (*cards.UploadTarget, error) {
	if s.createUploadURLFn != nil {
		return s.createUploadURLFn(ctx, userID, contentType)
	}
	return &cards.UploadTarget{}, nil
}

func (s *testCardsService) Create(ctx context.Context, userID uuid.UUID, imagePath string) (*models.Card, error) {
	if s.createFn != nil {
		return s.createFn(ctx, userID, imagePath)
	}
	return &models.Card{}, nil
}

func (s *testCardsService) Get(ctx context.Context, userID, cardID uuid.UUID) (*models.Card, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID, cardID)
	}
	return &models.Card{}, nil
}

func (s *testCardsService) List(ctx context.Context, userID uuid.UUID) ([]models.Card, error) {
	if s.listFn != nil {
		return s.listFn(ctx, userID)
	}
	return nil, nil
}

func (s *testCardsService) Delete(ctx context.Context, userID, cardID uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, userID, cardID)
	}
	return nil
}

func (s *testCardsService) MarkMatched(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (s *testCardsService) MarkFailed(context.Context, uuid.UUID) error             { return nil }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func withCardParam(req *http.Request, cardID uuid.UUID) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("cardId", cardID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCardCreateSuccess(t *testing.T) {
	userID := uuid.New()
	created := &models.Card{
		ID:             uuid.New(),
		UserID:         userID,
		ImagePath:      "cards/abc",
		MatchingStatus: enums.MatchingStatusPending,
	}
	svc := &testCardsService{
		createFn: func(_ context.Context, uid uuid.UUID, imagePath string) (*models.Card, error) {
			if uid != userID {
				t.Fatalf("unexpected user %s", uid)
			}
			if imagePath != "cards/abc" {
				t.Fatalf("unexpected image path %q", imagePath)
			}
			return created, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/cards", `{"image_path":"cards/abc"}`, userID)
	resp := httptest.NewRecorder()
	CardCreate(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	payload := body.Data.(map[string]any)
	if payload["matching_status"] != string(enums.MatchingStatusPending) {
		t.Fatalf("unexpected status %v", payload["matching_status"])
	}
}

func TestCardCreateRejectsForeignImagePath(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/v1/cards", `{"image_path":"../../etc/passwd"}`, uuid.New())
	resp := httptest.NewRecorder()
	CardCreate(&testCardsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCardCreateRequiresUserContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cards", strings.NewReader(`{"image_path":"cards/abc"}`))
	resp := httptest.NewRecorder()
	CardCreate(&testCardsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCardUploadURLSuccess(t *testing.T) {
	userID := uuid.New()
	svc := &testCardsService{
		createUploadURLFn: func(_ context.Context, _ uuid.UUID, contentType string) (*cards.UploadTarget, error) {
			if contentType != "image/png" {
				t.Fatalf("unexpected content type %q", contentType)
			}
			return &cards.UploadTarget{
				ImagePath: "cards/xyz",
				UploadURL: "https://storage.example.com/cards/xyz?signed",
				ExpiresAt: time.Now().Add(15 * time.Minute),
			}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/cards/upload-url", `{"content_type":"image/png"}`, userID)
	resp := httptest.NewRecorder()
	CardUploadURL(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCardUploadURLRejectsNonImageContentType(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/v1/cards/upload-url", `{"content_type":"application/zip"}`, uuid.New())
	resp := httptest.NewRecorder()
	CardUploadURL(&testCardsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCardDetailReturnsMatchedCard(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()
	refCardID := uuid.New()
	svc := &testCardsService{
		getFn: func(_ context.Context, _, cid uuid.UUID) (*models.Card, error) {
			if cid != cardID {
				t.Fatalf("unexpected card %s", cid)
			}
			return &models.Card{
				ID:             cardID,
				UserID:         userID,
				ImagePath:      "cards/abc",
				RefCardID:      &refCardID,
				MatchingStatus: enums.MatchingStatusMatched,
			}, nil
		},
	}

	req := withCardParam(authedRequest(http.MethodGet, "/api/v1/cards/"+cardID.String(), "", userID), cardID)
	resp := httptest.NewRecorder()
	CardDetail(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	payload := body.Data.(map[string]any)
	if payload["ref_card_id"] != refCardID.String() {
		t.Fatalf("unexpected ref card id %v", payload["ref_card_id"])
	}
}

func TestCardDetailRejectsMalformedID(t *testing.T) {
	req := authedRequest(http.MethodGet, "/api/v1/cards/not-a-uuid", "", uuid.New())
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("cardId", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	CardDetail(&testCardsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCardListMapsResponses(t *testing.T) {
	userID := uuid.New()
	svc := &testCardsService{
		listFn: func(context.Context, uuid.UUID) ([]models.Card, error) {
			return []models.Card{
				{ID: uuid.New(), UserID: userID, ImagePath: "cards/a", MatchingStatus: enums.MatchingStatusPending},
				{ID: uuid.New(), UserID: userID, ImagePath: "cards/b", MatchingStatus: enums.MatchingStatusFailed},
			}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/cards", "", userID)
	resp := httptest.NewRecorder()
	CardList(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	items := body.Data.([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 cards got %d", len(items))
	}
}

func TestCardDeleteSuccess(t *testing.T) {
	userID := uuid.New()
	cardID := uuid.New()
	called := false
	svc := &testCardsService{
		deleteFn: func(_ context.Context, uid, cid uuid.UUID) error {
			called = true
			if uid != userID || cid != cardID {
				t.Fatalf("unexpected ids %s %s", uid, cid)
			}
			return nil
		},
	}

	req := withCardParam(authedRequest(http.MethodDelete, "/api/v1/cards/"+cardID.String(), "", userID), cardID)
	resp := httptest.NewRecorder()
	CardDelete(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !called {
		t.Fatal("expected delete to be called")
	}
}
