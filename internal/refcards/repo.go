package refcards

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tcgcompanion/backend/pkg/db/models"
)

// nameSimilarityThreshold mirrors the pg_trgm default operator cutoff; below
// it a fuzzy name hit is noise.
const (
	nameSimilarityThreshold = 0.3
	fuzzyQueryLimit         = 20
)

// Repository exposes catalog card persistence and search operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog card repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID retrieves a catalog card by ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RefCard, error) {
	var card models.RefCard
	if err := r.db.WithContext(ctx).First(&card, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// ByYearAndLocalID returns cards whose set year and collector number both
// match exactly.
func (r *Repository) ByYearAndLocalID(ctx context.Context, year int, localID string) ([]models.RefCard, error) {
	var cards []models.RefCard
	err := r.db.WithContext(ctx).
		Where("set_year = ? AND tcg_local_id = ?", year, localID).
		Find(&cards).Error
	return cards, err
}

// ByYearAndName returns cards from the given year whose name is trigram-similar
// to the query, best matches first.
func (r *Repository) ByYearAndName(ctx context.Context, year int, name string) ([]models.RefCard, error) {
	var cards []models.RefCard
	err := r.db.WithContext(ctx).
		Where("set_year = ? AND similarity(name, ?) > ?", year, name, nameSimilarityThreshold).
		Order(clause.Expr{SQL: "similarity(name, ?) DESC", Vars: []any{name}}).
		Limit(fuzzyQueryLimit).
		Find(&cards).Error
	return cards, err
}

// ByLocalIDAndName returns cards with the given collector number whose name is
// trigram-similar to the query, best matches first.
func (r *Repository) ByLocalIDAndName(ctx context.Context, localID, name string) ([]models.RefCard, error) {
	var cards []models.RefCard
	err := r.db.WithContext(ctx).
		Where("tcg_local_id = ? AND similarity(name, ?) > ?", localID, name, nameSimilarityThreshold).
		Order(clause.Expr{SQL: "similarity(name, ?) DESC", Vars: []any{name}}).
		Limit(fuzzyQueryLimit).
		Find(&cards).Error
	return cards, err
}

// UpsertMany inserts or refreshes catalog cards keyed on their upstream id.
func (r *Repository) UpsertMany(ctx context.Context, cards []models.RefCard) error {
	if len(cards) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tcg_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"tcg_local_id", "name", "image_url", "set_id", "set_name", "set_year", "updated_at",
			}),
		}).
		Create(&cards).Error
}
