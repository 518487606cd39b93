package cards

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tcgcompanion/backend/pkg/db/models"
	"github.com/tcgcompanion/backend/pkg/enums"
	pkgerrors "github.com/tcgcompanion/backend/pkg/errors"
	"github.com/tcgcompanion/backend/pkg/outbox"
	"github.com/tcgcompanion/backend/pkg/outbox/payloads"
)

// Service defines owned-card operations.
type Service interface {
	CreateUploadURL(ctx context.Context, userID uuid.UUID, contentType string) (*UploadTarget, error)
	Create(ctx context.Context, userID uuid.UUID, imagePath string) (*models.Card, error)
	Get(ctx context.Context, userID, cardID uuid.UUID) (*models.Card, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Card, error)
	Delete(ctx context.Context, userID, cardID uuid.UUID) error

	// Pipeline writers; idempotent targeted updates by id.
	MarkMatched(ctx context.Context, cardID, refCardID uuid.UUID) error
	MarkFailed(ctx context.Context, cardID uuid.UUID) error
}

// UploadTarget carries a signed PUT URL and the object path the client must
// reference when creating the card.
type UploadTarget struct {
	ImagePath string    `json:"image_path"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CardRepository is the persistence surface the service needs.
type CardRepository interface {
	CreateTx(tx *gorm.DB, card *models.Card) (*models.Card, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Card, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Card, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetMatched(ctx context.Context, id, refCardID uuid.UUID) error
	SetFailed(ctx context.Context, id uuid.UUID) error
}

// TxRunner executes a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Emitter appends domain events to the transactional outbox.
type Emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// URLSigner issues signed upload URLs for image objects.
type URLSigner interface {
	SignedUploadURL(objectPath, contentType string, expiry time.Duration) (string, error)
}

// ServiceParams wires owned-card dependencies.
type ServiceParams struct {
	Repo         CardRepository
	Tx           TxRunner
	Outbox       Emitter
	Signer       URLSigner
	UploadExpiry time.Duration
}

type service struct {
	repo         CardRepository
	tx           TxRunner
	outbox       Emitter
	signer       URLSigner
	uploadExpiry time.Duration
}

// NewService validates and wires owned-card dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cards repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	if params.Signer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "upload url signer required")
	}
	expiry := params.UploadExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &service{
		repo:         params.Repo,
		tx:           params.Tx,
		outbox:       params.Outbox,
		signer:       params.Signer,
		uploadExpiry: expiry,
	}, nil
}

func (s *service) CreateUploadURL(ctx context.Context, userID uuid.UUID, contentType string) (*UploadTarget, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	imagePath := fmt.Sprintf("cards/%s", uuid.NewString())
	url, err := s.signer.SignedUploadURL(imagePath, contentType, s.uploadExpiry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &UploadTarget{
		ImagePath: imagePath,
		UploadURL: url,
		ExpiresAt: time.Now().Add(s.uploadExpiry),
	}, nil
}

// Create persists a pending card and queues the card.created event in the
// same transaction.
func (s *service) Create(ctx context.Context, userID uuid.UUID, imagePath string) (*models.Card, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if imagePath == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image path required")
	}

	card := &models.Card{
		ID:             uuid.New(),
		UserID:         userID,
		ImagePath:      imagePath,
		MatchingStatus: enums.MatchingStatusPending,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.CreateTx(tx, card); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventCardCreated,
			AggregateType: enums.OutboxAggregateCard,
			AggregateID:   card.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Version:       1,
			Data: payloads.CardCreatedEvent{
				CardID:    card.ID,
				UserID:    userID,
				ImagePath: card.ImagePath,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create card")
	}
	return card, nil
}

func (s *service) Get(ctx context.Context, userID, cardID uuid.UUID) (*models.Card, error) {
	card, err := s.ownedCard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Card, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	cards, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cards")
	}
	return cards, nil
}

func (s *service) Delete(ctx context.Context, userID, cardID uuid.UUID) error {
	if _, err := s.ownedCard(ctx, userID, cardID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, cardID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete card")
	}
	return nil
}

func (s *service) MarkMatched(ctx context.Context, cardID, refCardID uuid.UUID) error {
	if cardID == uuid.Nil || refCardID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "card id and ref card id required")
	}
	if err := s.repo.SetMatched(ctx, cardID, refCardID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark card matched")
	}
	return nil
}

func (s *service) MarkFailed(ctx context.Context, cardID uuid.UUID) error {
	if cardID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "card id required")
	}
	if err := s.repo.SetFailed(ctx, cardID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark card failed")
	}
	return nil
}

func (s *service) ownedCard(ctx context.Context, userID, cardID uuid.UUID) (*models.Card, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if cardID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card id required")
	}
	card, err := s.repo.FindByID(ctx, cardID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "card not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find card")
	}
	if card.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "card not found")
	}
	return card, nil
}
