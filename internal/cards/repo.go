package cards

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tcgcompanion/backend/pkg/db/models"
	"github.com/tcgcompanion/backend/pkg/enums"
)

// Repository exposes owned-card persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an owned-card repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx persists a card inside the caller's transaction.
func (r *Repository) CreateTx(tx *gorm.DB, card *models.Card) (*models.Card, error) {
	if err := tx.Create(card).Error; err != nil {
		return nil, err
	}
	return card, nil
}

// FindByID retrieves a card by ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	var card models.Card
	if err := r.db.WithContext(ctx).First(&card, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// ListByUser returns the user's cards, unmatched first, newest within each
// group.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Card, error) {
	var cards []models.Card
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("ref_card_id IS NULL DESC").
		Order("created_at DESC").
		Find(&cards).Error
	return cards, err
}

// Delete removes a card by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Card{}).Error
}

// SetMatched records the winning catalog card with a targeted update by id.
func (r *Repository) SetMatched(ctx context.Context, id, refCardID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Card{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"ref_card_id":     refCardID,
			"matching_status": enums.MatchingStatusMatched,
		}).Error
}

// SetFailed records a terminal failure with a targeted update by id.
func (r *Repository) SetFailed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Card{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"matching_status": enums.MatchingStatusFailed,
		}).Error
}
